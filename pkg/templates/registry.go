package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed assets/**/*.tmpl
var embeddedFS embed.FS

// Template IDs of the embedded assets
const (
	SystemInstructionID = "agents/ossy_system"
	StrategyPromptID    = "prompts/strategy_run"
	StaticSummaryID     = "summaries/static"
)

// Template is a parsed prompt or summary template.
type Template struct {
	ID      string
	Content string

	parsed *template.Template
}

// Render executes the template and trims surrounding whitespace from the output.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.ID, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Registry resolves templates by ID ("<dir>/<name>" without the .tmpl suffix).
type Registry struct {
	fs        fs.FS
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewRegistry loads every template under dir on disk. Used to override the
// embedded prompts without rebuilding.
func NewRegistry(dir string) (*Registry, error) {
	return NewRegistryFromFS(os.DirFS(dir))
}

// NewRegistryFromFS loads every .tmpl file of filesystem.
func NewRegistryFromFS(filesystem fs.FS) (*Registry, error) {
	r := &Registry{
		fs:        filesystem,
		templates: map[string]*Template{},
	}

	err := fs.WalkDir(filesystem, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}
		return r.load(p)
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Get returns the registry over the embedded assets. Panics if they fail to
// parse, which only a broken build can cause.
func Get() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedFS, "assets")
		if err != nil {
			defaultErr = fmt.Errorf("prepare embedded templates: %w", err)
			return
		}
		defaultRegistry, defaultErr = NewRegistryFromFS(sub)
	})

	if defaultErr != nil {
		panic(defaultErr)
	}

	return defaultRegistry
}

// GetTemplate retrieves a template by its ID, loading it lazily when it was
// added to the filesystem after the registry was built.
func (r *Registry) GetTemplate(id string) (*Template, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[id]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	p := id + ".tmpl"
	if _, err := fs.Stat(r.fs, p); err != nil {
		return nil, fmt.Errorf("template not found: %s", id)
	}
	if err := r.load(p); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates[id], nil
}

// Render executes a template by ID.
func (r *Registry) Render(id string, data any) (string, error) {
	tmpl, err := r.GetTemplate(id)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// List returns the known template IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) load(p string) error {
	id := strings.TrimSuffix(p, path.Ext(p))

	content, err := fs.ReadFile(r.fs, p)
	if err != nil {
		return fmt.Errorf("read template %s: %w", id, err)
	}

	parsed, err := template.New(id).Funcs(funcMap).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", id, err)
	}

	r.mu.Lock()
	r.templates[id] = &Template{ID: id, Content: string(content), parsed: parsed}
	r.mu.Unlock()

	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)
