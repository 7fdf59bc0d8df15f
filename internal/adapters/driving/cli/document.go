package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	documentsJSON   bool
	showChunks      bool
	deleteConfirmed bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage ingested documents",
	Long: `List, inspect or delete ingested documents.

Documents can be addressed by ID or by their source URL.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with chunk counts",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id|url]",
	Short: "Show document metadata and sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id|url]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsShowCmd.Flags().BoolVar(&showChunks, "chunks", false, "print every chunk")
	documentsDeleteCmd.Flags().BoolVarP(&deleteConfirmed, "yes", "y", false, "skip the confirmation prompt")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

type documentJSON struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Kind       string `json:"kind"`
	Chunks     int    `json:"chunks"`
	UploadedBy string `json:"uploaded_by,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docs, err := documentService.List(ctxOf(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		out := make([]documentJSON, len(docs))
		for i := range docs {
			out[i] = documentJSON{
				ID:         docs[i].ID,
				URL:        docs[i].URL,
				Kind:       docs[i].Kind.String(),
				Chunks:     docs[i].ChunkCount,
				UploadedBy: docs[i].UploadedBy,
				UpdatedAt:  docs[i].UpdatedAt.Format(timeLayout),
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested. Add one with 'aksara ingest URL'.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    URL:     %s\n", docs[i].URL)
		cmd.Printf("    Kind:    %s\n", docs[i].Kind)
		cmd.Printf("    Chunks:  %d\n", docs[i].ChunkCount)
		cmd.Printf("    Updated: %s\n", docs[i].UpdatedAt.Format(timeLayout))
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	details, err := documentService.GetDetails(ctxOf(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	doc := details.Document
	cmd.Printf("Document: %s\n\n", doc.ID)
	if details.Title != "" {
		cmd.Printf("  Title:        %s\n", details.Title)
	}
	cmd.Printf("  URL:          %s\n", doc.URL)
	cmd.Printf("  Kind:         %s\n", doc.Kind)
	if details.PermitType != "" {
		cmd.Printf("  Permit type:  %s\n", details.PermitType)
	}
	if details.Region != "" {
		cmd.Printf("  Region:       %s\n", details.Region)
	}
	if details.VersionDate != "" {
		cmd.Printf("  Version:      %s\n", details.VersionDate)
	}
	cmd.Printf("  Chunks:       %d\n", len(details.Chunks))
	cmd.Printf("  Content hash: %s\n", doc.ContentHash)
	if doc.UploadedBy != "" {
		cmd.Printf("  Uploaded by:  %s\n", doc.UploadedBy)
	}
	cmd.Printf("  Created:      %s\n", doc.CreatedAt.Format(timeLayout))
	cmd.Printf("  Updated:      %s\n", doc.UpdatedAt.Format(timeLayout))

	if len(details.Sections) > 0 {
		cmd.Println("\n  Sections:")
		for _, s := range details.Sections {
			cmd.Printf("    - %s\n", s)
		}
	}

	if showChunks {
		for i := range details.Chunks {
			c := &details.Chunks[i]
			cmd.Printf("\n--- #%d %s ---\n%s\n", c.Metadata.Order, c.Metadata.Section, c.Text)
		}
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	ctx := ctxOf(cmd)
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if !deleteConfirmed {
		cmd.Printf("Delete %s (%s) and all its chunks? [y/N] ", doc.ID, doc.URL)
		var reply string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &reply); err != nil || (reply != "y" && reply != "Y") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := documentService.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Document %s deleted.\n", doc.ID)
	return nil
}
