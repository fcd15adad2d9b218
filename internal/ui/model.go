// Package ui provides the terminal user interface of the music library browser.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/discographic/internal/app/browser"
)

// Controller is the browse/queue controller rendered by the UI.
type Controller interface {
	LoadCollection(ctx context.Context) error
	BrowseInto(idx int) error
	BrowseUp(crumbIdx int) error
	LoadQueueItem(idx int) error
	ChangeSong(delta int) error
	ShowQueueInfo(idx int)
	Snapshot() browser.Snapshot
	Events() <-chan browser.Change
}

type pane int

const (
	paneBrowse pane = iota
	paneQueue
)

const loadTimeout = 30 * time.Second

// Model is the bubbletea model.
type Model struct {
	ctrl     Controller
	snapshot browser.Snapshot

	pane         pane
	browseCursor int
	queueCursor  int

	loading   bool
	spinner   spinner.Model
	statusMsg string
	statusErr bool

	width, height int
}

// --- Messages ---
type loadedMsg struct {
	err error
}

type changeMsg struct {
	change browser.Change
}

type eventsClosedMsg struct{}

// New creates the UI model for a controller.
func New(ctrl Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle

	return Model{
		ctrl:     ctrl,
		snapshot: ctrl.Snapshot(),
		loading:  true,
		spinner:  sp,
	}
}

// Init starts loading the collection and listening for controller changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(), m.waitForChange())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return loadedMsg{err: m.ctrl.LoadCollection(ctx)}
	}
}

func (m Model) waitForChange() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		change, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return changeMsg{change: change}
	}
}

// browseLen returns the number of entries in the browse pane.
func (m Model) browseLen() int {
	if m.snapshot.Location.Kind == browser.InAlbum {
		return len(m.snapshot.Items)
	}
	return len(m.snapshot.Nodes)
}

func clamp(v, n int) int {
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
