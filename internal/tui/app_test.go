package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgomes/genie/internal/history"
	"github.com/mgomes/genie/internal/prompts"
	"github.com/mgomes/genie/internal/relay"
)

type stubStream struct {
	texts []string
	pos   int
}

func (s *stubStream) Recv() (relay.Chunk, error) {
	if s.pos >= len(s.texts) {
		return relay.Chunk{}, io.EOF
	}
	chunk := relay.Chunk{Texts: []string{s.texts[s.pos]}}
	s.pos++
	return chunk, nil
}

func (s *stubStream) Close() error { return nil }

type stubGenerator struct {
	texts   []string
	lastCtx context.Context
}

func (g *stubGenerator) StreamGenerate(ctx context.Context, _ string) (relay.ChunkStream, error) {
	g.lastCtx = ctx
	return &stubStream{texts: g.texts}, nil
}

type stubHost struct{}

func (stubHost) NotifyResults(context.Context, string, []relay.Snapshot) {}
func (stubHost) CopyToClipboard(string) error                           { return nil }

func newTestModel(t *testing.T, gen relay.Generator) LauncherModel {
	t.Helper()
	r := relay.New("test-key", "test-model", gen, stubHost{})
	m := NewLauncherModel(r, nil, nil, nil)
	m.copyText = func(string) error { return nil }
	return m
}

func typeString(t *testing.T, m LauncherModel, s string) LauncherModel {
	t.Helper()
	for _, r := range s {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		var ok bool
		m, ok = updated.(LauncherModel)
		if !ok {
			t.Fatal("expected LauncherModel from Update")
		}
	}
	return m
}

func TestTypingRefreshesResults(t *testing.T) {
	m := newTestModel(t, &stubGenerator{texts: []string{"out"}})

	m = typeString(t, m, "write a limerick")

	if len(m.results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(m.results))
	}

	if !strings.Contains(m.results[0].Subtitle, "write a limerick") {
		t.Errorf("expected subtitle to echo the query, got '%s'", m.results[0].Subtitle)
	}

	if m.lastPrompt != "write a limerick" {
		t.Errorf("expected lastPrompt updated, got '%s'", m.lastPrompt)
	}
}

func TestResultsMsgForCurrentPromptAccepted(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "q")

	updated, _ := m.Update(ResultsMsg{
		Query:     "q",
		Snapshots: []relay.Snapshot{{Title: "streaming text"}},
	})
	m = updated.(LauncherModel)

	if len(m.results) != 1 || m.results[0].Title != "streaming text" {
		t.Errorf("expected streaming snapshot applied, got %+v", m.results)
	}
}

func TestResultsMsgStaleDropped(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "current")

	before := m.results[0].Title
	updated, _ := m.Update(ResultsMsg{
		Query:     "superseded",
		Snapshots: []relay.Snapshot{{Title: "stale"}},
	})
	m = updated.(LauncherModel)

	if m.results[0].Title != before {
		t.Error("expected stale update to be dropped")
	}
}

func TestEnterRunsGenerationToCompletion(t *testing.T) {
	gen := &stubGenerator{texts: []string{"hello"}}
	m := newTestModel(t, gen)
	m = typeString(t, m, "q")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	if !m.generating {
		t.Fatal("expected generating state after enter")
	}

	if cmd == nil {
		t.Fatal("expected a command to run the generation")
	}

	msg := cmd()
	done, ok := msg.(GenerationDoneMsg)
	if !ok {
		t.Fatalf("expected GenerationDoneMsg, got %T", msg)
	}

	if done.Query != "q" {
		t.Errorf("expected done message tagged with 'q', got '%s'", done.Query)
	}

	updated, _ = m.Update(done)
	m = updated.(LauncherModel)

	if m.generating {
		t.Error("expected generating cleared after done message")
	}
}

func TestEnterWhileGeneratingIgnored(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "q")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	if cmd != nil {
		t.Error("expected no second generation while one is in flight")
	}
}

func TestEscCancelsInFlightGeneration(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "q")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	cancelled := false
	m.cancel = func() { cancelled = true }

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if !cancelled {
		t.Error("expected esc to cancel the in-flight generation")
	}

	if cmd != nil {
		t.Error("expected esc during generation not to quit")
	}
}

func TestTypingSupersedesGeneration(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "q")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	cancelled := false
	m.cancel = func() { cancelled = true }

	m = typeString(t, m, "x")

	if !cancelled {
		t.Error("expected typing to cancel the in-flight generation")
	}

	if m.lastPrompt != "qx" {
		t.Errorf("expected lastPrompt 'qx', got '%s'", m.lastPrompt)
	}
}

func TestEnterCopiesCompletedResult(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "q")

	copied := ""
	m.results = []relay.Snapshot{{
		Title:    "the output",
		Subtitle: "Generated Text (Click to copy)",
		Action: func() bool {
			copied = "the output"
			return true
		},
	}}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	if copied != "the output" {
		t.Error("expected enter to invoke the copy action")
	}

	if m.status != "Copied to clipboard" {
		t.Errorf("expected copied status, got '%s'", m.status)
	}
}

func TestEnterCopiesHistoryRow(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}
	m.historyGen = []history.Generation{{Prompt: "old prompt", Output: "old output"}}
	m.selected = len(m.results)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(LauncherModel)

	if copied != "old output" {
		t.Errorf("expected history output copied, got '%s'", copied)
	}
}

func TestHistoryResultsStaleDropped(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "abc")

	updated, _ := m.Update(HistoryResultsMsg{
		Query:       "ab",
		Generations: []history.Generation{{Prompt: "p"}},
	})
	m = updated.(LauncherModel)

	if len(m.historyGen) != 0 {
		t.Error("expected stale history results to be dropped")
	}
}

func TestPromptTemplateExpansion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "haiku.md"), []byte("Write a haiku about {input}"), 0600); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	store := prompts.NewStore(dir)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	r := relay.New("key", "m", &stubGenerator{}, stubHost{})
	m := NewLauncherModel(r, nil, store, nil)
	m.copyText = func(string) error { return nil }

	m = typeString(t, m, "/haiku rain")

	if m.lastPrompt != "Write a haiku about rain" {
		t.Errorf("expected expanded prompt, got '%s'", m.lastPrompt)
	}

	if !strings.Contains(m.results[0].Subtitle, "Write a haiku about rain") {
		t.Errorf("expected subtitle to echo the expanded prompt, got '%s'", m.results[0].Subtitle)
	}
}

func TestViewShowsResultRow(t *testing.T) {
	m := newTestModel(t, &stubGenerator{})
	m = typeString(t, m, "q")

	view := m.View()
	if !strings.Contains(view, "Generate Text") {
		t.Errorf("expected view to contain the result title, got:\n%s", view)
	}
}

func TestWrapTextShortText(t *testing.T) {
	lines := wrapText("Hello world", 80, 3)

	if len(lines) != 1 {
		t.Errorf("expected 1 line, got %d", len(lines))
	}

	if lines[0] != "Hello world" {
		t.Errorf("expected 'Hello world', got '%s'", lines[0])
	}
}

func TestWrapTextLongText(t *testing.T) {
	text := "This is a longer piece of generated text that should wrap to multiple lines when displayed"
	lines := wrapText(text, 40, 3)

	if len(lines) < 2 {
		t.Errorf("expected multiple lines, got %d", len(lines))
	}

	for i, line := range lines {
		if len(line) > 40 {
			t.Errorf("line %d exceeds width: len=%d", i, len(line))
		}
	}
}

func TestWrapTextMaxLines(t *testing.T) {
	text := strings.Repeat("word ", 100)
	lines := wrapText(text, 40, 3)

	if len(lines) > 3 {
		t.Errorf("expected max 3 lines, got %d", len(lines))
	}

	lastLine := lines[len(lines)-1]
	if !strings.HasSuffix(lastLine, "...") {
		t.Errorf("expected last line to end with '...', got '%s'", lastLine)
	}
}

func TestWrapTextEmptyString(t *testing.T) {
	if lines := wrapText("", 80, 3); lines != nil {
		t.Errorf("expected nil for empty string, got %v", lines)
	}
}

func TestTruncateLongString(t *testing.T) {
	result := truncate("Hello World", 8)
	if result != "Hello..." {
		t.Errorf("expected 'Hello...', got '%s'", result)
	}
}

func TestTruncateNewlinesReplaced(t *testing.T) {
	result := truncate("Hello\nWorld", 20)
	if strings.Contains(result, "\n") {
		t.Error("expected newlines to be replaced")
	}
}
