package tui

import (
	"context"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgomes/genie/internal/history"
	"github.com/mgomes/genie/internal/prompts"
	"github.com/mgomes/genie/internal/relay"
)

const (
	maxHistoryRows = 5
	recallDebounce = 400 * time.Millisecond
	recallTimeout  = 5 * time.Second
	statusLinger   = 2 * time.Second
	resultWidth    = 76
)

// QueryEmbedder embeds the typed query for similarity recall.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// LauncherModel is the launcher surface: a query box, the relay's
// single result row, and past generations beneath it.
type LauncherModel struct {
	input    textinput.Model
	relay    *relay.Relay
	history  *history.Store
	prompts  *prompts.Store
	embedder QueryEmbedder

	results    []relay.Snapshot
	historyGen []history.Generation
	selected   int

	// lastPrompt is the expanded prompt behind the current result
	// list; relay updates tagged with anything else are stale.
	lastPrompt string

	generating bool
	genQuery   string
	cancel     context.CancelFunc

	status   string
	copyText func(string) error

	width  int
	height int
}

func NewLauncherModel(r *relay.Relay, hist *history.Store, prom *prompts.Store, embedder QueryEmbedder) LauncherModel {
	input := textinput.New()
	input.Placeholder = "Type a prompt..."
	input.Focus()
	input.Width = 60

	m := LauncherModel{
		input:    input,
		relay:    r,
		history:  hist,
		prompts:  prom,
		embedder: embedder,
		copyText: clipboard.WriteAll,
	}
	m.refreshResults()
	return m
}

func (m LauncherModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.recallCmd(""))
}

func (m LauncherModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ResultsMsg:
		// Drop updates for superseded prompts.
		if msg.Query == m.lastPrompt {
			m.results = msg.Snapshots
			m.clampSelection()
		}

	case GenerationDoneMsg:
		if msg.Query == m.genQuery {
			m.generating = false
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
		}

	case recallTickMsg:
		if msg.query == m.input.Value() {
			return m, m.recallCmd(msg.query)
		}

	case HistoryResultsMsg:
		if msg.Query == m.input.Value() {
			m.historyGen = msg.Generations
			m.clampSelection()
		}

	case PromptsReloadedMsg:
		if !m.generating {
			m.refreshResults()
		}

	case StatusClearMsg:
		m.status = ""
	}

	return m, nil
}

func (m LauncherModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case "esc":
		if m.generating && m.cancel != nil {
			m.cancel()
			return m, nil
		}
		return m, tea.Quit

	case "up", "ctrl+p":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.selected < m.rowCount()-1 {
			m.selected++
		}
		return m, nil

	case "enter":
		return m.selectRow()
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != prev {
		// Typing supersedes any in-flight generation.
		if m.generating && m.cancel != nil {
			m.cancel()
		}
		m.refreshResults()

		query := m.input.Value()
		return m, tea.Batch(cmd, tea.Tick(recallDebounce, func(time.Time) tea.Msg {
			return recallTickMsg{query: query}
		}))
	}

	return m, cmd
}

func (m *LauncherModel) refreshResults() {
	prompt := m.input.Value()
	if m.prompts != nil {
		prompt, _ = m.prompts.Expand(prompt)
	}

	m.lastPrompt = prompt
	m.results = m.relay.HandleQuery(context.Background(), prompt)
	m.clampSelection()
}

func (m *LauncherModel) clampSelection() {
	if rows := m.rowCount(); m.selected >= rows {
		m.selected = 0
	}
}

func (m LauncherModel) rowCount() int {
	return len(m.results) + len(m.historyGen)
}

func (m LauncherModel) selectRow() (tea.Model, tea.Cmd) {
	if m.selected < len(m.results) {
		snap := m.results[m.selected]

		switch {
		case snap.AsyncAction != nil:
			if m.generating {
				return m, nil
			}

			ctx, cancel := context.WithCancel(context.Background())
			m.cancel = cancel
			m.generating = true
			m.genQuery = m.lastPrompt

			action := snap.AsyncAction
			query := m.genQuery
			return m, func() tea.Msg {
				ok := action(ctx)
				return GenerationDoneMsg{Query: query, OK: ok}
			}

		case snap.Action != nil:
			if snap.Action() {
				m.status = "Copied to clipboard"
			} else {
				m.status = "Copy failed"
			}
			return m, clearStatusCmd()
		}

		return m, nil
	}

	idx := m.selected - len(m.results)
	if idx < len(m.historyGen) {
		if m.copyText(m.historyGen[idx].Output) == nil {
			m.status = "Copied to clipboard"
		} else {
			m.status = "Copy failed"
		}
		return m, clearStatusCmd()
	}

	return m, nil
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(statusLinger, func(time.Time) tea.Msg {
		return StatusClearMsg{}
	})
}

func (m LauncherModel) recallCmd(query string) tea.Cmd {
	store := m.history
	embedder := m.embedder

	return func() tea.Msg {
		if store == nil {
			return nil
		}

		if strings.TrimSpace(query) == "" {
			gens, err := store.Recent(maxHistoryRows)
			if err != nil {
				return nil
			}
			return HistoryResultsMsg{Query: query, Generations: gens}
		}

		if embedder == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), recallTimeout)
		defer cancel()

		vec, err := embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil
		}

		embBytes, err := sqlite_vec.SerializeFloat32(vec)
		if err != nil {
			return nil
		}

		scored, err := store.SearchSimilar(embBytes, maxHistoryRows)
		if err != nil {
			return nil
		}

		gens := make([]history.Generation, len(scored))
		for i, s := range scored {
			gens[i] = s.Generation
		}
		return HistoryResultsMsg{Query: query, Generations: gens}
	}
}

func (m LauncherModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("genie") + " ")
	b.WriteString(m.input.View() + "\n\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n\n")
	}

	for i, snap := range m.results {
		m.renderRow(&b, i, snap.Title, snap.Subtitle)
	}

	if len(m.historyGen) > 0 {
		label := "Similar"
		if strings.TrimSpace(m.input.Value()) == "" {
			label = "Recent"
		}
		b.WriteString(sectionStyle.Render(label) + "\n")

		for i, gen := range m.historyGen {
			m.renderRow(&b, len(m.results)+i, gen.Prompt, truncate(gen.Output, resultWidth))
		}
	}

	if m.prompts != nil && strings.HasPrefix(m.input.Value(), "/") {
		if names := m.prompts.Names(); len(names) > 0 {
			b.WriteString(dimStyle.Render("templates: /"+strings.Join(names, " /")) + "\n")
		}
	}

	help := "↑/↓ navigate  enter select  esc quit"
	if m.generating {
		help = "esc cancel  ctrl+c quit"
	}
	b.WriteString("\n" + helpStyle.Render(help))

	return b.String()
}

func (m LauncherModel) renderRow(b *strings.Builder, index int, title, subtitle string) {
	marker := "  "
	if index == m.selected {
		marker = selectedStyle.Render("> ")
	}

	titleLines := wrapText(title, resultWidth, 6)
	if len(titleLines) == 0 {
		titleLines = []string{""}
	}

	b.WriteString(marker + resultTitleStyle.Render(titleLines[0]) + "\n")
	for _, line := range titleLines[1:] {
		b.WriteString("  " + resultTitleStyle.Render(line) + "\n")
	}

	style := subtitleStyle
	if title == relay.TitleError {
		style = errorStyle
	}
	b.WriteString("  " + style.Render(truncate(subtitle, resultWidth)) + "\n\n")
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func wrapText(s string, width, maxLines int) []string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.TrimSpace(s)

	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}

	if len(s) == 0 {
		return nil
	}

	var lines []string
	for len(s) > 0 && len(lines) < maxLines {
		if len(s) <= width {
			lines = append(lines, s)
			break
		}

		breakAt := width
		for breakAt > width/2 && s[breakAt] != ' ' {
			breakAt--
		}
		if s[breakAt] != ' ' {
			breakAt = width
		}

		lines = append(lines, strings.TrimSpace(s[:breakAt]))
		s = strings.TrimSpace(s[breakAt:])
	}

	if len(s) > 0 && len(lines) == maxLines {
		lastLine := lines[maxLines-1]
		if len(lastLine) > width-3 {
			lastLine = lastLine[:width-3]
		}
		lines[maxLines-1] = lastLine + "..."
	}

	return lines
}
