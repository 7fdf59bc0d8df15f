// Package ask provides the grounded question view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/components/input"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/components/status"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/keymap"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/messages"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/styles"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// ErrNoAnswerService indicates that no answer service was provided.
var ErrNoAnswerService = errors.New("answer service is required")

// chromeHeight is the number of lines used by the title, input and status bar.
const chromeHeight = 9

// View asks a question and shows the cited answer or the refusal.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Input
	viewport  viewport.Model
	statusbar *status.Bar

	answers driving.AnswerService
	ctx     context.Context
	region  string

	question string
	answer   *domain.Answer
	err      error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates an ask view filtered to the default region.
func NewView(s *styles.Styles, km *keymap.KeyMap, answers driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		viewport:   viewport.New(80, 24-chromeHeight),
		statusbar:  status.NewBar(s, km),
		answers:    answers,
		ctx:        context.Background(),
		region:     domain.DefaultRegion,
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.statusbar.SetRegion(v.region)
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	if cmd != nil {
		return v, cmd
	}
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(msg.String(), v.keymap.Region) {
		v.ToggleRegion()
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.question = question
			v.focusInput = false
			v.input.Blur()
			return v, tea.Batch(v.statusbar.StartBusy("Menyusun jawaban..."), v.ask(question))
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(msg.String(), v.keymap.New) {
		v.Reset()
		return v, v.input.Focus()
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// ask returns a command that calls the answer service.
func (v *View) ask(question string) tea.Cmd {
	q := domain.Question{Text: question, Filters: domain.Filters{Region: v.region}}
	return func() tea.Msg {
		if v.answers == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := v.answers.Answer(v.ctx, q)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.answer = msg.Answer
	if v.answer.Refused() {
		v.statusbar.SetState(status.StateRefused)
	} else {
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetCount(len(v.answer.Citations))
	}
	v.viewport.SetContent(v.renderAnswer())
	v.viewport.GotoTop()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	msg := err.Error()
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		msg = "Gagal memproses permintaan"
	}
	v.statusbar.SetMessage(msg)
	v.viewport.SetContent(v.styles.Error.Render(msg))
}

// renderAnswer formats the answer body, citations and version note.
func (v *View) renderAnswer() string {
	a := v.answer
	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))

	var b strings.Builder
	b.WriteString(v.styles.Muted.Render("Q: " + v.question))
	b.WriteString("\n\n")

	if a.Refused() {
		b.WriteString(v.styles.Refusal.Render(wrap.Render(a.Markdown)))
		return b.String()
	}

	b.WriteString(v.styles.Answer.Render(wrap.Render(a.Markdown)))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Subtitle.Render("Sumber"))
	b.WriteString("\n")
	for i, c := range a.Citations {
		b.WriteString(v.styles.CitationIndex.Render(fmt.Sprintf("[%d] ", i+1)))
		b.WriteString(v.styles.Normal.Render(c.Title))
		if c.Section != "" {
			b.WriteString(v.styles.Muted.Render(" · " + c.Section))
		}
		b.WriteString("\n    ")
		b.WriteString(v.styles.Muted.Render(c.URL))
		b.WriteString("\n")
	}

	if a.Retrieval.LatestVersionDate != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Versi regulasi terbaru: " + a.Retrieval.LatestVersionDate))
	}
	if a.Model.Model != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d potongan dipertimbangkan · %s",
			a.Retrieval.ChunksConsidered, a.Model.Model)))
	}
	return b.String()
}

// ToggleRegion switches between the default region and all regions.
func (v *View) ToggleRegion() {
	if v.region == "" {
		v.region = domain.DefaultRegion
	} else {
		v.region = ""
	}
	v.statusbar.SetRegion(v.region)
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Aksara · Tanya Perizinan"),
		"",
		v.input.View(),
		"",
	}
	if v.answer != nil || v.err != nil {
		sections = append(sections, v.viewport.View())
	} else {
		sections = append(sections, v.styles.Muted.Render(
			"Jawaban hanya diberikan bila didukung sumber regulasi yang tersimpan."))
	}
	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.viewport.Width = width
	v.viewport.Height = max(height-chromeHeight, 3)
	if v.answer != nil {
		v.viewport.SetContent(v.renderAnswer())
	}
}

// Reset returns the view to input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.question = ""
	v.answer = nil
	v.err = nil
	v.viewport.SetContent("")
	v.statusbar.Clear()
}

// Answer returns the last answer, if any.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Region returns the active region filter. Empty means all regions.
func (v *View) Region() string {
	return v.region
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
