package documents

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/adapters/driving/tui/messages"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs      []domain.DocumentInfo
	details   *driving.DocumentDetails
	listErr   error
	deleteErr error
	deleted   string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.docs, m.listErr
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return &m.details.Document, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	if m.details == nil {
		return nil, domain.ErrNotFound
	}
	return m.details, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.deleteErr
}

func sampleDocs() []domain.DocumentInfo {
	return []domain.DocumentInfo{
		{Document: domain.Document{ID: "doc-1", URL: "https://jdih.example.go.id/pirt.html", Kind: domain.ContentKindHTML}, ChunkCount: 4},
		{Document: domain.Document{ID: "doc-2", URL: "https://halal.example.go.id/x.pdf", Kind: domain.ContentKindPDF}, ChunkCount: 9},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// run executes cmd and feeds its message back into the view.
func run(t *testing.T, v *View, cmd tea.Cmd) *View {
	t.Helper()
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())
	return v
}

func loadedView(t *testing.T, svc *mockDocumentService) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.SetDimensions(120, 30)
	return run(t, v, v.Init())
}

func TestView_LoadsDocuments(t *testing.T) {
	v := loadedView(t, &mockDocumentService{docs: sampleDocs()})

	require.NoError(t, v.Err())
	assert.Len(t, v.Documents(), 2)
	view := v.View()
	assert.Contains(t, view, "Documents (2)")
	assert.Contains(t, view, "https://jdih.example.go.id/pirt.html")
	assert.Contains(t, view, "9 chunks")
}

func TestView_EmptyAndErrorStates(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		v := loadedView(t, &mockDocumentService{})
		assert.Contains(t, v.View(), "No documents ingested")
	})

	t.Run("list error", func(t *testing.T) {
		v := loadedView(t, &mockDocumentService{listErr: errors.New("db down")})
		assert.Contains(t, v.View(), "Error: db down")
	})

	t.Run("no service", func(t *testing.T) {
		v := NewView(nil, nil)
		v = run(t, v, v.Init())
		assert.ErrorIs(t, v.Err(), ErrNoDocumentService)
	})
}

func TestView_Navigation(t *testing.T) {
	v := loadedView(t, &mockDocumentService{docs: sampleDocs()})

	v, _ = v.Update(key("k"))
	assert.Equal(t, 0, v.SelectedIndex())
	v, _ = v.Update(key("j"))
	v, _ = v.Update(key("j"))
	assert.Equal(t, 1, v.SelectedIndex())
	assert.Equal(t, "doc-2", v.SelectedDocument().ID)

	_, cmd := v.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Details(t *testing.T) {
	svc := &mockDocumentService{
		docs: sampleDocs(),
		details: &driving.DocumentDetails{
			Document:   sampleDocs()[0].Document,
			Title:      "Perbup PIRT",
			PermitType: "PIRT",
			Region:     "DIY",
			Sections:   []string{"Pasal 1", "Pasal 2"},
		},
	}
	v := loadedView(t, svc)

	v, cmd := v.Update(key("enter"))
	v = run(t, v, cmd)

	require.NotNil(t, v.Details())
	view := v.View()
	assert.Contains(t, view, "Perbup PIRT")
	assert.Contains(t, view, "PIRT")
	assert.Contains(t, view, "Pasal 2")

	v, _ = v.Update(key("esc"))
	assert.Nil(t, v.Details())
	assert.Contains(t, v.View(), "Documents (2)")
}

func TestView_Delete(t *testing.T) {
	t.Run("confirmed delete reloads list", func(t *testing.T) {
		svc := &mockDocumentService{docs: sampleDocs()}
		v := loadedView(t, svc)

		v, _ = v.Update(key("d"))
		assert.True(t, v.ConfirmingDelete())
		assert.Contains(t, v.View(), "[y/N]")

		v, cmd := v.Update(key("y"))
		require.NotNil(t, cmd)
		msg := cmd()
		assert.Equal(t, messages.DocumentDeleted{DocumentID: "doc-1"}, msg)
		assert.Equal(t, "doc-1", svc.deleted)

		svc.docs = sampleDocs()[1:]
		v, cmd = v.Update(msg)
		v = run(t, v, cmd)
		assert.Len(t, v.Documents(), 1)
		assert.Contains(t, v.View(), "Deleted doc-1")
	})

	t.Run("any other key cancels", func(t *testing.T) {
		svc := &mockDocumentService{docs: sampleDocs()}
		v := loadedView(t, svc)

		v, _ = v.Update(key("d"))
		v, cmd := v.Update(key("n"))

		assert.Nil(t, cmd)
		assert.False(t, v.ConfirmingDelete())
		assert.Empty(t, svc.deleted)
	})

	t.Run("delete failure is shown", func(t *testing.T) {
		svc := &mockDocumentService{docs: sampleDocs(), deleteErr: errors.New("locked")}
		v := loadedView(t, svc)

		v, _ = v.Update(key("d"))
		v, cmd := v.Update(key("y"))
		v = run(t, v, cmd)

		assert.EqualError(t, v.Err(), "locked")
	})
}
