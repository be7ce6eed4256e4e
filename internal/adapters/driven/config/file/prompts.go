package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptsDir is the prompt directory name under the mailqa home.
const PromptsDir = "prompts"

// defaultPrompts seeds new prompt directories and backs any file that is
// missing or unreadable.
var defaultPrompts = map[string]string{
	driven.PromptSystem: driven.DefaultSystemPrompt,
	driven.PromptAnswer: driven.DefaultAnswerPrompt,
}

// PromptStore loads prompt templates from user-editable files.
//
// Nothing touches the disk until the first Load, which creates the
// directory and writes any missing default files.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.mailqa/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(home, PromptsDir)
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template stored in <name>.txt. Templates with a built-in
// default never fail: an unreadable file or directory yields the default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	def, hasDefault := defaultPrompts[name]
	if s.initErr != nil {
		if hasDefault {
			return def, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	prompt, err := s.readFile(name)
	switch {
	case err == nil && prompt != "":
	case hasDefault:
		// An emptied file is treated like a deleted one.
		return def, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	default:
		return "", fmt.Errorf("load prompt %q: file is empty", name)
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

// Reload drops cached templates so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Path returns the file backing the named template.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.Path(name)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := s.writeReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) readFile(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) writeReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# mailqa prompts

Templates used when asking the language model about your mail.

## Files

- ` + "`system.txt`" + ` - standing instructions sent as the system message
- ` + "`answer.txt`" + ` - the message carrying the retrieved mail and the question

## Placeholders (answer.txt)

- ` + "`{{context}}`" + ` - the retrieved messages, separated by delimiter lines
- ` + "`{{question}}`" + ` - the question as typed

An answer template missing either placeholder is ignored and the built-in
prompt is used instead.

Keep the instruction in system.txt to reply with exactly ` + "`" + driven.NotInContextMarker + "`" + `
when the context lacks the answer: mailqa uses that reply to report an
ungrounded answer.

Delete a file to restore its default. Edits apply on the next command.
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("create prompt readme: %w", err)
	}
	return nil
}
