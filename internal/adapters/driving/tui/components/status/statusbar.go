// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/keymap"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/styles"
)

// State represents the current activity for display.
type State string

const (
	StateReady     State = "ready"
	StateBusy      State = "busy"
	StateError     State = "error"
	StateAnswered  State = "answered"
	StateRefused   State = "refused"
	StateResults   State = "results"
	StateDocuments State = "documents"
)

// Bar displays activity, the active region filter and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	state   State
	message string
	region  string
	count   int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		state:   StateReady,
		width:   80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update advances the spinner while busy.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok && s.state == StateBusy {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

// StartBusy switches to the busy state and returns the spinner tick.
func (s *Bar) StartBusy(message string) tea.Cmd {
	s.state = StateBusy
	s.message = message
	return s.spinner.Tick
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - s.styles.StatusBar.GetHorizontalFrameSize() - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	region := "all regions"
	if s.region != "" {
		region = s.region
	}
	prefix := s.styles.Muted.Render("[" + region + "] ")

	switch s.state {
	case StateBusy:
		return prefix + s.spinner.View() + " " + s.styles.Muted.Render(s.message)
	case StateError:
		if s.message != "" {
			return prefix + s.styles.Error.Render("Error: "+s.message)
		}
		return prefix + s.styles.Error.Render("Error")
	case StateAnswered:
		return prefix + s.styles.Success.Render(fmt.Sprintf("Grounded in %d sources", s.count))
	case StateRefused:
		return prefix + s.styles.Warning.Render("No supporting source")
	case StateResults:
		return prefix + s.styles.Normal.Render(fmt.Sprintf("%d results", s.count))
	case StateDocuments:
		return prefix + s.styles.Normal.Render(fmt.Sprintf("%d documents", s.count))
	case StateReady:
	}
	if s.message != "" {
		return prefix + s.styles.Muted.Render(s.message)
	}
	return prefix + s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateAnswered || s.state == StateRefused {
		bindings = s.keymap.AnswerHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCount sets the number shown for answered, results and documents states.
func (s *Bar) SetCount(count int) {
	s.count = count
}

// Count returns the current count.
func (s *Bar) Count() int {
	return s.count
}

// SetRegion sets the active region filter. Empty means all regions.
func (s *Bar) SetRegion(region string) {
	s.region = region
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to the ready state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.count = 0
}
