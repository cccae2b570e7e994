package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mgomes/genie/internal/cohere"
	"github.com/mgomes/genie/internal/config"
	"github.com/mgomes/genie/internal/history"
	"github.com/mgomes/genie/internal/prompts"
	"github.com/mgomes/genie/internal/relay"
	"github.com/mgomes/genie/internal/tui"
)

func main() {
	query := flag.String("q", "", "generate once and print to stdout")
	doCheck := flag.Bool("check", false, "validate the configured API key")
	doHistory := flag.Bool("history", false, "list recent generations")
	historyN := flag.Int("n", 10, "number of entries (use with -history)")
	flag.Parse()

	cfg := config.FromEnv()

	var client *cohere.Client
	if cfg.HasAPIKey() {
		client = cohere.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.EmbedModel, cfg.EmbedDim)
	}

	switch {
	case *doCheck:
		if err := runCheck(client); err != nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case *doHistory:
		if err := runHistory(cfg, *historyN); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
			os.Exit(1)
		}

	case *query != "":
		if err := runOnce(cfg, client, *query); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	default:
		if err := runLauncher(cfg, client); err != nil {
			fmt.Fprintf(os.Stderr, "Launcher failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func runCheck(client *cohere.Client) error {
	if client == nil {
		return fmt.Errorf("no API key configured; set COHERE_API_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.ValidateAPIKey(ctx); err != nil {
		return err
	}

	fmt.Println("API key is valid.")
	return nil
}

func runHistory(cfg *config.Config, limit int) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	generations, err := store.Recent(limit)
	if err != nil {
		return err
	}

	if len(generations) == 0 {
		fmt.Println("No generations recorded yet.")
		return nil
	}

	for _, gen := range generations {
		when := time.Unix(gen.CreatedAt, 0).Format("2006-01-02 15:04")
		fmt.Printf("%s  [%s]\n  %s\n  %s\n\n", when, gen.Model, gen.Prompt, firstLine(gen.Output))
	}

	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + "..."
		}
	}
	return s
}

func runOnce(cfg *config.Config, client *cohere.Client, prompt string) error {
	host := &stdoutHost{}
	r := relay.New(cfg.APIKey, cfg.Model, generator(client), host)

	if store, err := openHistory(cfg); err == nil {
		defer store.Close() //nolint:errcheck
		r.SetRecorder(history.NewRecorder(store, embedder(client)))
	}

	snaps := r.HandleQuery(context.Background(), prompt)
	if len(snaps) == 0 {
		return fmt.Errorf("no result for prompt")
	}
	if snaps[0].AsyncAction == nil {
		return fmt.Errorf("%s: %s", snaps[0].Title, snaps[0].Subtitle)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	snaps[0].AsyncAction(ctx)
	return host.err
}

// stdoutHost renders the snapshot stream as incremental stdout writes.
// Progress snapshots carry the whole buffer, so only the unseen suffix
// is printed. An Errored terminal state is kept in err so the caller
// can exit non-zero.
type stdoutHost struct {
	printed int
	err     error
}

func (h *stdoutHost) NotifyResults(_ context.Context, _ string, snapshots []relay.Snapshot) {
	for _, snap := range snapshots {
		switch {
		case snap.Subtitle == relay.SubtitleStreaming:
			if len(snap.Title) > h.printed {
				fmt.Print(snap.Title[h.printed:])
				h.printed = len(snap.Title)
			}

		case snap.Subtitle == relay.SubtitleCompleted:
			if len(snap.Title) > h.printed {
				fmt.Print(snap.Title[h.printed:])
				h.printed = len(snap.Title)
			}
			fmt.Println()

		case snap.Title == relay.TitleCancelled:
			fmt.Fprintf(os.Stderr, "\n%s: %s\n", snap.Title, snap.Subtitle)

		case snap.Title == relay.TitleError:
			h.err = fmt.Errorf("%s: %s", snap.Title, snap.Subtitle)
		}
	}
}

func (h *stdoutHost) CopyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}

func runLauncher(cfg *config.Config, client *cohere.Client) error {
	host := tui.NewProgramHost()
	r := relay.New(cfg.APIKey, cfg.Model, generator(client), host)

	// History and templates are conveniences; the launcher runs
	// without them.
	var store *history.Store
	if s, err := openHistory(cfg); err == nil {
		store = s
		defer store.Close() //nolint:errcheck
		r.SetRecorder(history.NewRecorder(store, embedder(client)))
	}

	var promptStore *prompts.Store
	if dir, err := config.PromptsDir(); err == nil {
		promptStore = prompts.NewStore(dir)
		promptStore.Load() //nolint:errcheck
	}

	model := tui.NewLauncherModel(r, store, promptStore, queryEmbedder(client))
	program := tea.NewProgram(model)
	host.SetProgram(program)

	if promptStore != nil {
		if watcher, err := prompts.NewWatcher(promptStore); err == nil {
			watcher.SetReloadHandler(func() {
				program.Send(tui.PromptsReloadedMsg{})
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := watcher.Start(ctx); err != nil {
				watcher.Stop()
			} else {
				defer watcher.Stop()
			}
		}
	}

	_, err := program.Run()
	return err
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := config.DBPath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	return history.Open(path, cfg.EmbedDim)
}

// The nil checks below keep a nil *cohere.Client from becoming a
// non-nil interface value.

func generator(client *cohere.Client) relay.Generator {
	if client == nil {
		return nil
	}
	return client
}

func embedder(client *cohere.Client) history.Embedder {
	if client == nil {
		return nil
	}
	return client
}

func queryEmbedder(client *cohere.Client) tui.QueryEmbedder {
	if client == nil {
		return nil
	}
	return client
}
