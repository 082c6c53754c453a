// Package content loads units of work from YAML fixtures on disk.
//
// A unit file holds either one unit:
//
//	id: week3-quiz-q1
//	body: Quiz 3, question 1
//	context: Intro to Statistics
//	question:
//	  text: Which measure is robust to outliers?
//	  options: [Mean, Median, Range]
//
// or a list under "units:". A sibling "<name>.context.md" supplies course
// context for units in "<name>.yaml" that have none. Files are read in
// lexical order and the first unit seen with a given id wins.
package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

type unitFile struct {
	ID       string         `yaml:"id"`
	Body     string         `yaml:"body"`
	Context  string         `yaml:"context"`
	Question *task.Question `yaml:"question"`
	Units    []unitFile     `yaml:"units"`
}

// Loader loads and caches units from a directory tree.
type Loader struct {
	rootDir string
	units   map[string]resolve.Unit
	mu      sync.RWMutex
}

// NewLoader walks rootDir and loads every unit file. Invalid files are
// skipped with a warning.
func NewLoader(rootDir string) (*Loader, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("loading units: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("loading units: %s is not a directory", rootDir)
	}

	l := &Loader{
		rootDir: rootDir,
		units:   make(map[string]resolve.Unit),
	}
	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading units: %w", err)
	}

	slog.Info("units loaded", "dir", rootDir, "units", len(l.units))
	return l, nil
}

// Unit returns a unit by id.
func (l *Loader) Unit(id string) (resolve.Unit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.units[id]
	return u, ok
}

// Units returns all loaded units sorted by id.
func (l *Loader) Units() []resolve.Unit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	units := make([]resolve.Unit, 0, len(l.units))
	for _, u := range l.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units
}

func (l *Loader) loadAll() error {
	return filepath.WalkDir(l.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadFile(path)
		}
		return nil
	})
}

func (l *Loader) loadFile(path string) error {
	units, err := ReadUnits(path)
	if err != nil {
		slog.Warn("skipping invalid unit file", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range units {
		if _, dup := l.units[u.ID]; dup {
			slog.Warn("skipping duplicate unit id", "id", u.ID, "path", path)
			continue
		}
		l.units[u.ID] = u
	}
	return nil
}

// ReadUnits parses one unit file. Units without an id get their content
// fingerprint as id.
func ReadUnits(path string) ([]resolve.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f unitFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	entries := f.Units
	if len(entries) == 0 {
		entries = []unitFile{f}
	}
	sharedContext := readContextFile(path)

	units := make([]resolve.Unit, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Body) == "" {
			return nil, fmt.Errorf("%s: unit %d has no body", path, i+1)
		}
		if e.Question != nil {
			if err := e.Question.Validate(); err != nil {
				return nil, fmt.Errorf("%s: unit %d: %w", path, i+1, err)
			}
		}
		u := resolve.Unit{
			ID:       strings.TrimSpace(e.ID),
			Content:  task.ContentUnit{Body: e.Body, Context: e.Context},
			Question: e.Question,
		}
		if u.Content.Context == "" {
			u.Content.Context = sharedContext
		}
		if u.ID == "" {
			u.ID = u.Fingerprint()
		}
		units = append(units, u)
	}
	return units, nil
}

func readContextFile(unitPath string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(unitPath, ".yaml"), ".yml")
	data, err := os.ReadFile(base + ".context.md")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ReadContent reads a single content unit for analysis. YAML unit files
// yield their first unit's content; any other file is taken verbatim as
// the body.
func ReadContent(path string) (task.ContentUnit, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		units, err := ReadUnits(path)
		if err != nil {
			return task.ContentUnit{}, err
		}
		return units[0].Content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return task.ContentUnit{}, err
	}
	body := strings.TrimSpace(string(data))
	if body == "" {
		return task.ContentUnit{}, fmt.Errorf("%s is empty", path)
	}
	return task.ContentUnit{Body: body}, nil
}
