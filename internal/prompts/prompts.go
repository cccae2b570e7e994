// Package prompts loads reusable prompt templates from a directory.
// A query of the form "/name rest of input" expands to the named
// template with {input} replaced by the rest.
package prompts

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const inputPlaceholder = "{input}"

type Template struct {
	Name string
	Body string
}

type Store struct {
	dir string

	mu        sync.RWMutex
	templates map[string]Template
}

func NewStore(dir string) *Store {
	return &Store{
		dir:       dir,
		templates: make(map[string]Template),
	}
}

// Load reads every *.md file in the directory. A missing directory is
// an empty store, not an error.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.templates = make(map[string]Template)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	templates := make(map[string]Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		templates[name] = Template{
			Name: name,
			Body: strings.TrimSpace(string(data)),
		}
	}

	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(name string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tmpl, ok := s.templates[name]
	return tmpl, ok
}

func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// Expand rewrites "/name rest" into the named template with {input}
// substituted. Queries that don't reference a known template come back
// unchanged with ok=false.
func (s *Store) Expand(query string) (string, bool) {
	if !strings.HasPrefix(query, "/") {
		return query, false
	}

	name, input, _ := strings.Cut(strings.TrimPrefix(query, "/"), " ")
	tmpl, ok := s.Get(name)
	if !ok {
		return query, false
	}

	input = strings.TrimSpace(input)
	if strings.Contains(tmpl.Body, inputPlaceholder) {
		return strings.ReplaceAll(tmpl.Body, inputPlaceholder, input), true
	}

	if input == "" {
		return tmpl.Body, true
	}
	return tmpl.Body + "\n\n" + input, true
}
