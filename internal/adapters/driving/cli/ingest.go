package cli

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

var (
	ingestManifest    string
	ingestKind        string
	ingestPermitType  string
	ingestRegion      string
	ingestTitle       string
	ingestVersionDate string
	ingestJSON        bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Ingest regulatory sources",
	Long: `Fetches each source, extracts its text, splits it into overlapping
chunks, embeds them and stores the result. Re-ingesting a URL replaces its
chunks.

Sources are either given as arguments, sharing the tag flags, or listed in a
YAML manifest:

  sources:
    - url: https://jdih.example.go.id/perbup-12-2023.pdf
      permit_type: PIRT
      region: DIY
      version_date: "2023-05-01"
    - url: https://example.go.id/halal.html
      title: Panduan Sertifikasi Halal
      selectors:
        content: article`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "YAML file listing sources")
	ingestCmd.Flags().StringVar(&ingestKind, "kind", "", "content kind: html, pdf or markdown (default from URL)")
	ingestCmd.Flags().StringVar(&ingestPermitType, "permit-type", "", "permit type tag (PIRT, HALAL, BPOM)")
	ingestCmd.Flags().StringVar(&ingestRegion, "region", domain.DefaultRegion, "region tag")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "override the extracted title")
	ingestCmd.Flags().StringVar(&ingestVersionDate, "version-date", "", "regulation version date (YYYY-MM-DD)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// manifestSource is one entry of an ingest manifest.
type manifestSource struct {
	URL         string         `yaml:"url"`
	Kind        string         `yaml:"kind"`
	PermitType  string         `yaml:"permit_type"`
	Region      string         `yaml:"region"`
	Title       string         `yaml:"title"`
	VersionDate string         `yaml:"version_date"`
	Selectors   map[string]any `yaml:"selectors"`
}

type manifest struct {
	Sources []manifestSource `yaml:"sources"`
}

// ingestOutput is the JSON shape of one result.
type ingestOutput struct {
	URL         string `json:"url"`
	DocumentID  string `json:"document_id,omitempty"`
	ChunkCount  int    `json:"chunk_count"`
	ContentHash string `json:"content_hash,omitempty"`
	Created     bool   `json:"created"`
	Error       string `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errNotConfigured("ingestion")
	}

	specs, err := ingestSpecs(args)
	if err != nil {
		return err
	}
	for i := range specs {
		specs[i].UploadedBy = "cli"
	}

	results := ingestionService.UpsertBatch(ctxOf(cmd), specs)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if ingestJSON {
		if err := outputIngestJSON(cmd, results); err != nil {
			return err
		}
	} else {
		outputIngestTable(cmd, results)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}

// ingestSpecs builds specs from the manifest or from args and flags.
func ingestSpecs(args []string) ([]domain.SourceSpec, error) {
	if ingestManifest != "" {
		if len(args) > 0 {
			return nil, errors.New("use either --manifest or URL arguments, not both")
		}
		return loadManifest(ingestManifest)
	}
	if len(args) == 0 {
		return nil, errors.New("at least one URL or --manifest is required")
	}

	specs := make([]domain.SourceSpec, 0, len(args))
	for _, u := range args {
		specs = append(specs, domain.SourceSpec{
			URL:         u,
			Kind:        domain.ContentKind(ingestKind),
			PermitType:  ingestPermitType,
			Region:      ingestRegion,
			Title:       ingestTitle,
			VersionDate: ingestVersionDate,
		})
	}
	return specs, nil
}

// loadManifest reads a YAML source manifest.
func loadManifest(path string) ([]domain.SourceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest %s: %w", domain.ErrInvalidInput, path, err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("%w: manifest %s lists no sources", domain.ErrInvalidInput, path)
	}

	specs := make([]domain.SourceSpec, 0, len(m.Sources))
	for _, s := range m.Sources {
		specs = append(specs, domain.SourceSpec{
			URL:         s.URL,
			Kind:        domain.ContentKind(s.Kind),
			PermitType:  s.PermitType,
			Region:      cmp.Or(s.Region, domain.DefaultRegion),
			Title:       s.Title,
			VersionDate: s.VersionDate,
			Selectors:   s.Selectors,
		})
	}
	return specs, nil
}

func outputIngestJSON(cmd *cobra.Command, results []domain.IngestResult) error {
	out := make([]ingestOutput, len(results))
	for i, r := range results {
		out[i] = ingestOutput{
			URL:         r.URL,
			DocumentID:  r.DocumentID,
			ChunkCount:  r.ChunkCount,
			ContentHash: r.ContentHash,
			Created:     r.Created,
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputIngestTable(cmd *cobra.Command, results []domain.IngestResult) {
	for _, r := range results {
		if r.Err != nil {
			cmd.Printf("  FAIL  %s\n        %v\n", r.URL, r.Err)
			continue
		}
		action := "updated"
		if r.Created {
			action = "created"
		}
		cmd.Printf("  OK    %s (%d chunks, %s)\n", r.URL, r.ChunkCount, action)
	}
}
