package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/mentathq/mentat/internal/errors"
)

// Store is the configuration store every component that needs credentials
// takes as an explicit dependency. It persists key/value settings (API keys,
// active provider/model, setup-completion flag) across process runs.
type Store interface {
	// Get returns the value for name, or "" when unset.
	Get(name string) string

	// Set persists name=value, overwriting any existing entry.
	Set(name, value string) error

	// Unset removes name from the store.
	Unset(name string) error
}

// EnvFile is a Store backed by a .env-style file of key=value lines.
//
// Writes are idempotent: an existing key is overwritten in place, a new key
// is appended. Comments and unrelated lines are preserved. Values are also
// mirrored into the process environment so that code reading os.Getenv sees
// the same view.
type EnvFile struct {
	path string
}

// NewEnvFile creates a Store over the file at path and loads any existing
// entries into the process environment. Variables already present in the
// environment are not overridden.
func NewEnvFile(path string) (*EnvFile, error) {
	e := &EnvFile{path: path}
	if err := e.load(); err != nil {
		return nil, &errs.ConfigError{Path: path, Err: err}
	}
	return e, nil
}

// Path returns the backing file path.
func (e *EnvFile) Path() string { return e.path }

// Get returns the value for name. The process environment takes precedence
// over the file so that one-off overrides keep working.
func (e *EnvFile) Get(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	entries, err := e.read()
	if err != nil {
		return ""
	}
	return entries[name]
}

// Set persists name=value and mirrors it into the process environment.
func (e *EnvFile) Set(name, value string) error {
	if name == "" {
		return &errs.ConfigError{Path: e.path, Err: fmt.Errorf("variable name cannot be empty")}
	}
	if err := e.rewrite(name, value, false); err != nil {
		return &errs.ConfigError{Path: e.path, Err: err}
	}
	return os.Setenv(name, value)
}

// Unset removes name from the file and the process environment.
func (e *EnvFile) Unset(name string) error {
	if err := e.rewrite(name, "", true); err != nil {
		return &errs.ConfigError{Path: e.path, Err: err}
	}
	return os.Unsetenv(name)
}

// DefaultTemplate is the commented env file written on first run.
const DefaultTemplate = `# LLM Configuration
LLM_PROVIDER=
LLM_MODEL=

# Provider API Keys
OPENAI_API_KEY=
ANTHROPIC_API_KEY=

# System Configuration
BOOTSTRAP_COMPLETE=false
`

// CreateDefault writes a default env file with placeholder entries if the
// file doesn't exist yet.
func (e *EnvFile) CreateDefault() error {
	if _, err := os.Stat(e.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return &errs.ConfigError{Path: e.path, Err: err}
	}
	if err := os.WriteFile(e.path, []byte(DefaultTemplate), 0600); err != nil {
		return &errs.ConfigError{Path: e.path, Err: err}
	}
	return nil
}

// load reads the file and exports each entry into the process environment
// without overriding variables that are already set.
func (e *EnvFile) load() error {
	entries, err := e.read()
	if err != nil {
		return err
	}
	for name, value := range entries {
		if value == "" {
			continue
		}
		if _, ok := os.LookupEnv(name); !ok {
			if err := os.Setenv(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// read parses the file into a key→value map. A missing file is not an error;
// it reads as empty.
func (e *EnvFile) read() (map[string]string, error) {
	f, err := os.Open(e.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name, value, ok := parseLine(scanner.Text())
		if ok {
			entries[name] = value
		}
	}
	return entries, scanner.Err()
}

// rewrite rewrites the file, overwriting (or removing) the entry for name.
// All other lines, including comments and blanks, are preserved verbatim.
func (e *EnvFile) rewrite(name, value string, remove bool) error {
	var lines []string
	if data, err := os.ReadFile(e.path); err == nil {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return err
	}

	var out []string
	replaced := false
	for _, line := range lines {
		if key, _, ok := parseLine(line); ok && key == name {
			if remove {
				continue
			}
			if !replaced {
				out = append(out, fmt.Sprintf("%s=%s", name, value))
				replaced = true
			}
			continue
		}
		out = append(out, line)
	}
	if !replaced && !remove {
		out = append(out, fmt.Sprintf("%s=%s", name, value))
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return err
	}
	content := strings.Join(out, "\n")
	if content != "" {
		content += "\n"
	}
	return os.WriteFile(e.path, []byte(content), 0600)
}

// parseLine splits a KEY=VALUE line. Comments and malformed lines report
// ok=false. Surrounding quotes on the value are stripped.
func parseLine(line string) (name, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(trimmed[:idx])
	value = strings.TrimSpace(trimmed[idx+1:])
	value = strings.Trim(value, `"'`)
	return name, value, true
}
