package render

import (
	"encoding/json"
	"io"
)

const systemIcons = "/System/Library/CoreServices/CoreTypes.bundle/Contents/Resources/"

var alfredIcons = map[Category]string{
	CategoryPending: systemIcons + "Sync.icns",
	CategoryWaiting: systemIcons + "Clock.icns",
	CategoryNetwork: systemIcons + "GenericNetworkIcon.icns",
	CategoryError:   systemIcons + "AlertStopIcon.icns",
}

type alfredFeedback struct {
	Rerun float64      `json:"rerun,omitempty"`
	Items []alfredItem `json:"items"`
}

type alfredItem struct {
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle,omitempty"`
	Arg      string      `json:"arg,omitempty"`
	Valid    bool        `json:"valid"`
	Text     *alfredText `json:"text,omitempty"`
	Icon     *alfredIcon `json:"icon,omitempty"`
}

type alfredText struct {
	Copy      string `json:"copy"`
	LargeType string `json:"largetype"`
}

type alfredIcon struct {
	Path string `json:"path"`
}

// WriteAlfred writes an Alfred script filter document. Alfred runs the filter again
// after RerunInterval seconds when rerun is present.
func WriteAlfred(w io.Writer, fb Feedback) error {
	doc := alfredFeedback{Items: make([]alfredItem, 0, len(fb.Items))}
	if fb.Rerun {
		doc.Rerun = RerunInterval
	}

	for _, item := range fb.Items {
		ai := alfredItem{
			Title:    item.Title,
			Subtitle: item.Subtitle,
			Arg:      item.Copy,
			Valid:    item.Copy != "",
		}
		if item.Copy != "" {
			ai.Text = &alfredText{Copy: item.Copy, LargeType: item.Copy}
		}
		if path, ok := alfredIcons[item.Category]; ok {
			ai.Icon = &alfredIcon{Path: path}
		}
		doc.Items = append(doc.Items, ai)
	}

	return json.NewEncoder(w).Encode(doc)
}
