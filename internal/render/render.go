// Package render turns conversions and their errors into display items shared by every
// front end.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"quickfx/internal/domain/model"
)

type Category string

const (
	CategoryPending Category = "pending"
	CategoryResult  Category = "result"
	CategoryWaiting Category = "waiting"
	CategoryNetwork Category = "network"
	CategoryError   Category = "error"
)

// RerunInterval is how often, in seconds, a launcher should ask again while pending.
const RerunInterval = 0.5

type Item struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Copy     string   `json:"copy,omitempty"`
	Category Category `json:"category"`
}

// Feedback is everything one invocation shows. Rerun is set while a quote is pending.
type Feedback struct {
	Items []Item `json:"items"`
	Rerun bool   `json:"rerun,omitempty"`
}

// Render maps the outcome of a conversion to feedback. Parse errors produce no items.
func Render(conv *model.Conversion, err error) Feedback {
	if err != nil {
		item, ok := ErrorItem(err)
		if !ok {
			return Feedback{Items: []Item{}}
		}
		return Feedback{Items: []Item{item}}
	}
	if conv == nil {
		return Feedback{Items: []Item{}}
	}
	item := ConversionItem(conv)
	return Feedback{Items: []Item{item}, Rerun: item.Category == CategoryPending}
}

func ConversionItem(conv *model.Conversion) Item {
	switch {
	case conv.Pending():
		return Item{Title: "Fetching...", Category: CategoryPending}
	case conv.Trivial:
		return Item{
			Title:    conv.Amount,
			Subtitle: "The exchange rate is 1 :)",
			Copy:     conv.Amount,
			Category: CategoryResult,
		}
	}

	subtitle := ""
	if conv.Quote != nil {
		subtitle = "Fetch time: " + conv.Quote.FetchTime()
	}
	if conv.Stale {
		subtitle += " (refreshing)"
	}
	return Item{
		Title:    conv.Amount,
		Subtitle: subtitle,
		Copy:     conv.Amount,
		Category: CategoryResult,
	}
}

// ErrorItem reports false for errors that should be shown as nothing at all.
func ErrorItem(err error) (Item, bool) {
	var (
		pe *model.ParseError
		we *model.WaitingForInputError
		ne *model.NetworkError
	)
	switch {
	case errors.As(err, &pe):
		return Item{}, false
	case errors.As(err, &we):
		return Item{Title: "Waiting for more input", Subtitle: we.Hint, Category: CategoryWaiting}, true
	case errors.As(err, &ne):
		return Item{Title: "Network Error", Subtitle: ne.Error(), Category: CategoryNetwork}, true
	default:
		return Item{Title: "Error", Subtitle: err.Error(), Category: CategoryError}, true
	}
}

// WritePlain prints one line per item, title then subtitle.
func WritePlain(w io.Writer, fb Feedback) error {
	for _, item := range fb.Items {
		line := item.Title
		if item.Subtitle != "" {
			line += "  (" + item.Subtitle + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func WriteJSON(w io.Writer, fb Feedback) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fb)
}
