// Package tui provides a terminal viewer for timeline groups using
// bubbletea. It renders the layout projection of one group at a time and
// applies completion and editing keys through a graph.Board.
package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
)

// TUI is the terminal timeline viewer.
type TUI struct {
	board   *graph.Board
	layout  layout.Options
	density NodeDensity
	group   string
	updates <-chan *model.Snapshot
	onQuit  func()
	logger  *slog.Logger
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI over board.
func New(board *graph.Board, opts ...Option) *TUI {
	t := &TUI{
		board:   board,
		layout:  layout.DefaultOptions(),
		density: DensityStandard,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithLayoutOptions sets the initial layout strategy and gaps.
func WithLayoutOptions(o layout.Options) Option {
	return func(t *TUI) {
		t.layout = o
	}
}

// WithDensity sets the initial node density.
func WithDensity(d NodeDensity) Option {
	return func(t *TUI) {
		t.density = d
	}
}

// WithGroup selects the group shown first by id. Unknown ids fall back to
// the first group.
func WithGroup(id string) Option {
	return func(t *TUI) {
		t.group = id
	}
}

// WithUpdates sets a channel of snapshots written by other processes. Each
// one replaces the board state and the view is redrawn.
func WithUpdates(ch <-chan *model.Snapshot) Option {
	return func(t *TUI) {
		t.updates = ch
	}
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithLogger sets the logger for viewer diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *TUI) {
		t.logger = l
	}
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
// Cancellation is not an error.
func (t *TUI) Run(ctx context.Context) error {
	m := newModel(t)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		t.logger.Debug("viewer stopped", "reason", ctx.Err())
		return nil
	}
	return err
}
