package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptsFile is an optional single file holding every prompt as a
// "## name" section. Its sections take precedence over <name>.txt files.
const PromptsFile = "PROMPTS.md"

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	sections  map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptQASystem: `Anda adalah asisten hukum perizinan usaha di Indonesia.
Jawab hanya berdasarkan konteks sumber yang diberikan. Jangan mengarang peraturan, angka, biaya atau tenggat yang tidak tertulis dalam konteks.
Sebutkan nomor sumber (misalnya "Sumber #1") untuk setiap pernyataan penting.
Jika konteks tidak cukup untuk menjawab, katakan dengan jelas bahwa informasinya tidak tersedia.
Gunakan Markdown yang ringkas: paragraf pendek dan daftar bila perlu.`,

	driven.PromptRerankSystem: `You are a legal document reranker. Rank passages by relevance.
Respond with a JSON object {"order": [...]} listing every candidate index, most relevant first.`,
}

// sectionAliases maps historical PROMPTS.md headings to prompt names.
var sectionAliases = map[string]string{
	"q&a system prompt":    driven.PromptQASystem,
	"rerank system prompt": driven.PromptRerankSystem,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.aksara/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".aksara", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// Lookup order: PROMPTS.md section, <name>.txt, embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	sections := s.sections
	s.mu.RUnlock()

	if sections == nil {
		loaded, err := s.loadSections()
		if err != nil {
			logger.Warn("reading %s: %v", PromptsFile, err)
		}
		s.mu.Lock()
		s.sections = loaded
		s.mu.Unlock()
		sections = loaded
	}

	prompt, ok := sections[name]
	if !ok {
		var err error
		prompt, err = s.loadFromFile(name)
		if err != nil || prompt == "" {
			defaultPrompt, ok := defaultPrompts[name]
			if !ok {
				if err == nil {
					err = errors.New("empty prompt file")
				}
				return "", fmt.Errorf("load prompt %q: %w", name, err)
			}
			prompt = defaultPrompt
		}
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.sections = nil
	s.mu.Unlock()
}

// Names returns the built-in prompt names in sorted order.
func (s *PromptStore) Names() []string {
	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads prompts whenever a file in the prompt directory changes.
// It blocks until ctx is cancelled.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.Debug("prompt file changed: %s", filepath.Base(event.Name))
				s.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// loadSections parses PROMPTS.md. A missing file yields an empty map.
func (s *PromptStore) loadSections() (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, PromptsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return map[string]string{}, err
	}
	return ParseSections(string(data)), nil
}

// ParseSections splits Markdown into "## heading" sections keyed by the
// lowercased heading. Text before the first heading and empty sections are
// dropped.
func ParseSections(content string) map[string]string {
	sections := make(map[string]string)
	var key string
	var buf []string

	flush := func() {
		if key == "" {
			return
		}
		if body := strings.TrimSpace(strings.Join(buf, "\n")); body != "" {
			if alias, ok := sectionAliases[key]; ok {
				key = alias
			}
			sections[key] = body
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			key = strings.ToLower(strings.TrimSpace(heading))
			buf = buf[:0]
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Aksara Prompts

This directory contains the prompts sent to the language model.

## Files

- ` + "`qa_system.txt`" + ` - System instruction for grounded answers
- ` + "`rerank_system.txt`" + ` - System instruction for passage reranking

A ` + "`PROMPTS.md`" + ` file may hold the same prompts as "## qa_system" and
"## rerank_system" sections; its sections win over the .txt files.

## Customisation

Edit any file to change model behaviour. ` + "`aksara serve`" + ` and ` + "`aksara tui`" + ` reload
prompts when files change; other commands read them on start.
` + "`aksara prompts reload`" + ` restores missing files and shows which prompts resolve.
`
	return os.WriteFile(path, []byte(content), 0600)
}
