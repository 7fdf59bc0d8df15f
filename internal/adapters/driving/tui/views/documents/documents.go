// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/components/list"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/messages"
	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/styles"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// detailsLoaded carries details for the selected document.
type detailsLoaded struct {
	details *driving.DocumentDetails
	err     error
}

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents     []domain.DocumentInfo
	details       *driving.DocumentDetails
	selected      int
	scrollOffset  int
	width         int
	height        int
	err           error
	notice        string
	loading       bool
	confirmDelete bool
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.details = nil
	v.confirmDelete = false
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := v.documentService.List(v.ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) loadDetails(id string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return detailsLoaded{err: ErrNoDocumentService}
		}
		details, err := v.documentService.GetDetails(v.ctx, id)
		return detailsLoaded{details: details, err: err}
	}
}

func (v *View) deleteDocument(id string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: v.documentService.Delete(v.ctx, id)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.selected >= len(v.documents) {
				v.selected = max(len(v.documents)-1, 0)
			}
			v.adjustScroll()
		}
		return v, nil

	case detailsLoaded:
		v.err = msg.err
		v.details = msg.details
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Deleted " + msg.DocumentID
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.confirmDelete {
		v.confirmDelete = false
		if msg.String() == "y" {
			if doc := v.SelectedDocument(); doc != nil {
				return v, v.deleteDocument(doc.ID)
			}
		}
		return v, nil
	}

	if v.details != nil {
		if msg.Type == tea.KeyEsc {
			v.details = nil
		}
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			return v, v.loadDetails(doc.ID)
		}
	case "d":
		if v.SelectedDocument() != nil {
			v.confirmDelete = true
		}
	case "r":
		v.loading = true
		v.notice = ""
		return v, v.loadDocuments()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	if v.details != nil {
		return v.renderDetails()
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested. Run 'aksara ingest URL' first."))
	default:
		visible := v.visibleItemCount()
		for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d-%d of %d]",
				v.scrollOffset+1, min(v.scrollOffset+visible, len(v.documents)), len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	switch {
	case v.confirmDelete:
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its chunks? [y/N]", doc.URL)))
		}
	case v.notice != "":
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
		fallthrough
	default:
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] details  [d] delete  [r] reload  [esc] back"))
	}
	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.DocumentInfo) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	urlWidth := max(v.width-24, 10)
	line := fmt.Sprintf("%s%-*s  %-8s %4d chunks", indicator, urlWidth, list.Truncate(doc.URL, urlWidth),
		doc.Kind, doc.ChunkCount)

	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

func (v *View) renderDetails() string {
	d := v.details
	var b strings.Builder

	title := d.Title
	if title == "" {
		title = d.Document.URL
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-12s ", label)))
		b.WriteString(v.styles.Normal.Render(value))
		b.WriteString("\n")
	}
	field("ID", d.Document.ID)
	field("URL", d.Document.URL)
	field("Kind", d.Document.Kind.String())
	field("Permit type", d.PermitType)
	field("Region", d.Region)
	field("Version", d.VersionDate)
	field("Chunks", fmt.Sprintf("%d", len(d.Chunks)))
	field("Uploaded by", d.Document.UploadedBy)
	field("Updated", d.Document.UpdatedAt.Format("2006-01-02 15:04"))

	if len(d.Sections) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Sections"))
		b.WriteString("\n")
		for _, s := range d.Sections {
			b.WriteString("  - " + s + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[esc] back to list"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.DocumentInfo {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.DocumentInfo {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Details returns the document whose details are shown, if any.
func (v *View) Details() *driving.DocumentDetails {
	return v.details
}

// ConfirmingDelete reports whether a delete confirmation is pending.
func (v *View) ConfirmingDelete() bool {
	return v.confirmDelete
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
