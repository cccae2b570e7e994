package tui

import (
	"github.com/mgomes/genie/internal/history"
	"github.com/mgomes/genie/internal/relay"
)

// ResultsMsg carries a snapshot update published by the relay. Query
// identifies the originating prompt so stale updates can be dropped.
type ResultsMsg struct {
	Query     string
	Snapshots []relay.Snapshot
}

// GenerationDoneMsg signals that a streaming generation finished in
// some terminal state.
type GenerationDoneMsg struct {
	Query string
	OK    bool
}

// HistoryResultsMsg carries past generations to show under the main
// result row.
type HistoryResultsMsg struct {
	Query       string
	Generations []history.Generation
}

// PromptsReloadedMsg signals that the template store was reloaded.
type PromptsReloadedMsg struct{}

// StatusClearMsg clears the transient status line.
type StatusClearMsg struct{}

// recallTickMsg fires after the recall debounce window.
type recallTickMsg struct {
	query string
}
