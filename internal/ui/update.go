package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/discographic/internal/app/browser"
)

// ---------- Update ----------
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case loadedMsg:
		m.loading = false
		m.refresh()
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%d artists loaded", len(m.snapshot.Nodes)))
		return m, nil

	case changeMsg:
		m.refresh()
		return m, m.waitForChange()

	case eventsClosedMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	// global shortcuts
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.pane == paneBrowse {
			m.pane = paneQueue
		} else {
			m.pane = paneBrowse
		}
		return m, nil
	case "n":
		m.run(m.ctrl.ChangeSong(1))
		return m, nil
	case "b":
		m.run(m.ctrl.ChangeSong(-1))
		return m, nil
	}

	if m.pane == paneQueue {
		return m.handleQueueKey(key)
	}
	return m.handleBrowseKey(key)
}

func (m Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		m.browseCursor = clamp(m.browseCursor+1, m.browseLen())
	case "k", "up":
		m.browseCursor = clamp(m.browseCursor-1, m.browseLen())
	case "enter", "l", "right":
		if m.run(m.ctrl.BrowseInto(m.browseCursor)) {
			m.browseCursor = 0
		}
	case "h", "left", "backspace":
		depth := len(m.snapshot.Breadcrumb)
		if depth < 2 {
			return m, nil
		}
		// Return to the entry we came from
		from := m.snapshot.Breadcrumb[depth-1].Idx
		if m.run(m.ctrl.BrowseUp(depth - 2)) {
			m.browseCursor = clamp(from, m.browseLen())
		}
	case "p":
		if m.run(m.ctrl.LoadQueueItem(m.browseCursor)) {
			m.queueCursor = 0
			m.setStatus("queue loaded")
		}
	}
	return m, nil
}

func (m Model) handleQueueKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		m.queueCursor = clamp(m.queueCursor+1, len(m.snapshot.Queue))
	case "k", "up":
		m.queueCursor = clamp(m.queueCursor-1, len(m.snapshot.Queue))
	case "enter":
		if len(m.snapshot.Queue) > 0 {
			m.run(m.ctrl.ChangeSong(m.queueCursor - m.snapshot.CurrentSong))
		}
	case "i":
		if len(m.snapshot.Queue) > 0 {
			m.ctrl.ShowQueueInfo(m.queueCursor)
			m.refresh()
		}
	}
	return m, nil
}

// run refreshes the snapshot after a controller call and reports its error. Returns true on success.
func (m *Model) run(err error) bool {
	m.refresh()
	if err != nil {
		m.setError(err)
		return false
	}
	m.statusMsg, m.statusErr = "", false
	return true
}

func (m *Model) refresh() {
	m.snapshot = m.ctrl.Snapshot()
	m.browseCursor = clamp(m.browseCursor, m.browseLen())
	m.queueCursor = clamp(m.queueCursor, len(m.snapshot.Queue))
	if m.snapshot.Location.Kind == browser.AtRoot && !m.snapshot.CollectionLoaded {
		m.browseCursor = 0
	}
}

func (m *Model) setStatus(s string) {
	m.statusMsg, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	m.statusMsg, m.statusErr = err.Error(), true
}
