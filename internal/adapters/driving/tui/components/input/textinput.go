// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/styles"
)

// Character limits for inputs.
const (
	QuestionCharLimit = 500
	QueryCharLimit    = 256
)

// Input wraps a bubbles textinput with a label.
type Input struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// New creates a focused input with the given label and placeholder.
func New(s *styles.Styles, label, placeholder string, charLimit int) *Input {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = charLimit
	ti.Width = 50

	return &Input{
		textinput: ti,
		styles:    s,
		label:     label,
		width:     50,
	}
}

// NewQuestionInput creates the input used by the ask view.
func NewQuestionInput(s *styles.Styles) *Input {
	return New(s, "Tanya: ", "Bagaimana cara mengurus PIRT di Sleman?", QuestionCharLimit)
}

// NewSearchInput creates the input used by the search view.
func NewSearchInput(s *styles.Styles) *Input {
	return New(s, "Cari: ", "kata kunci regulasi...", QueryCharLimit)
}

// Init starts the cursor blink.
func (s *Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the label and field.
func (s *Input) View() string {
	label := s.styles.Title.Render(s.label)
	field := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (s *Input) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *Input) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *Input) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *Input) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *Input) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input.
func (s *Input) SetWidth(width int) {
	s.width = width
	inputWidth := width - lipgloss.Width(s.label) - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.textinput.Width = inputWidth
}

// Width returns the current width.
func (s *Input) Width() int {
	return s.width
}

// Reset clears the input.
func (s *Input) Reset() {
	s.textinput.Reset()
}
