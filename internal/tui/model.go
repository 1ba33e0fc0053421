// Package tui is the interactive prompt: every edit re-parses the line and asks the
// converter, and a pending quote is polled until it lands.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"quickfx/internal/domain/ports"
	"quickfx/internal/parser"
	"quickfx/internal/render"
)

const inputCharLimit = 64

// resultMsg carries the outcome of evaluating the line as it was at generation seq.
type resultMsg struct {
	seq      int
	feedback render.Feedback
}

type rerunMsg struct {
	seq int
}

type Model struct {
	ctx          context.Context
	converter    ports.Converter
	pollInterval time.Duration

	input    textinput.Model
	seq      int
	feedback render.Feedback
	quitting bool
}

func NewModel(ctx context.Context, converter ports.Converter, pollInterval time.Duration, initial string) *Model {
	ti := textinput.New()
	ti.Placeholder = "100 USD to JPY"
	ti.CharLimit = inputCharLimit
	ti.Width = inputCharLimit
	ti.Prompt = "> "
	ti.SetValue(initial)
	ti.Focus()

	return &Model{
		ctx:          ctx,
		converter:    converter,
		pollInterval: pollInterval,
		input:        ti,
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.input.Value() != "" {
		cmds = append(cmds, m.evaluate())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		}

	case resultMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.feedback = msg.feedback
		if msg.feedback.Rerun {
			seq := msg.seq
			return m, tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
				return rerunMsg{seq: seq}
			})
		}
		return m, nil

	case rerunMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.evaluate()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	m.seq++
	if strings.TrimSpace(m.input.Value()) == "" {
		m.feedback = render.Feedback{}
		return m, cmd
	}
	return m, tea.Batch(cmd, m.evaluate())
}

// evaluate snapshots the current line and generation so late answers for an older line
// are dropped.
func (m *Model) evaluate() tea.Cmd {
	seq := m.seq
	query := m.input.Value()
	ctx := m.ctx
	converter := m.converter

	return func() tea.Msg {
		req, err := parser.Parse(query)
		if err != nil {
			return resultMsg{seq: seq, feedback: render.Render(nil, err)}
		}
		conv, err := converter.Convert(ctx, req)
		return resultMsg{seq: seq, feedback: render.Render(conv, err)}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("quickfx"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for _, item := range m.feedback.Items {
		b.WriteString("  ")
		b.WriteString(itemStyle(item.Category).Render(item.Title))
		if item.Subtitle != "" {
			b.WriteString("  ")
			b.WriteString(subtitleStyle.Render(item.Subtitle))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("esc to quit"))
	b.WriteString("\n")
	return b.String()
}

// Feedback is what the prompt currently shows.
func (m *Model) Feedback() render.Feedback {
	return m.feedback
}

// Run starts the prompt on the terminal and blocks until the user quits or ctx ends.
func Run(ctx context.Context, converter ports.Converter, pollInterval time.Duration, initial string) error {
	p := tea.NewProgram(NewModel(ctx, converter, pollInterval, initial), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
