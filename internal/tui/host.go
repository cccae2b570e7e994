package tui

import (
	"context"
	"sync"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgomes/genie/internal/relay"
)

// ProgramHost bridges the relay to a running Bubble Tea program.
// Program.Send is safe from any goroutine, so the relay can publish
// from its streaming goroutine. Updates before SetProgram are dropped.
type ProgramHost struct {
	mu sync.Mutex
	p  *tea.Program
}

func NewProgramHost() *ProgramHost {
	return &ProgramHost{}
}

func (h *ProgramHost) SetProgram(p *tea.Program) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.p = p
}

func (h *ProgramHost) NotifyResults(_ context.Context, query string, snapshots []relay.Snapshot) {
	h.mu.Lock()
	p := h.p
	h.mu.Unlock()

	if p == nil {
		return
	}
	p.Send(ResultsMsg{Query: query, Snapshots: snapshots})
}

func (h *ProgramHost) CopyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
