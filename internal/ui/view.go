package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/discographic/internal/app/browser"
	"github.com/osa030/discographic/internal/domain/song"
)

const helpText = "j/k move · enter open · h up · p play · n/b next/prev · i info · tab pane · q quit"

// View renders the model.
func (m Model) View() string {
	header := titleStyle.Render("discographic") + "  " + m.renderBreadcrumb()

	var content string
	if m.loading {
		content = m.spinner.View() + " loading collection..."
	} else {
		browse := m.renderBrowse()
		queue := m.renderQueue()
		browseStyle, queueStyle := paneStyle, activePaneStyle
		if m.pane == paneBrowse {
			browseStyle, queueStyle = activePaneStyle, paneStyle
		}
		if m.width > 0 {
			w := m.width/2 - 4
			browseStyle = browseStyle.Width(w)
			queueStyle = queueStyle.Width(w)
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, browseStyle.Render(browse), queueStyle.Render(queue))
	}

	footer := helpStyle.Render(helpText)
	if m.statusMsg != "" {
		status := okStyle.Render(m.statusMsg)
		if m.statusErr {
			status = errorStyle.Render(m.statusMsg)
		}
		footer = status + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) renderBreadcrumb() string {
	names := make([]string, len(m.snapshot.Breadcrumb))
	for i, c := range m.snapshot.Breadcrumb {
		names[i] = c.Name
	}
	return crumbStyle.Render(strings.Join(names, " / "))
}

func (m Model) renderBrowse() string {
	var b strings.Builder
	if m.snapshot.Location.Kind == browser.InAlbum {
		for i, it := range m.snapshot.Items {
			m.writeLine(&b, i == m.browseCursor && m.pane == paneBrowse, fmt.Sprintf("%2d. %s", i+1, it.Title()))
		}
	} else {
		for i, n := range m.snapshot.Nodes {
			line := fmt.Sprintf("%s %s", n.Name, subtleStyle.Render(fmt.Sprintf("(%d)", n.SongCount())))
			m.writeLine(&b, i == m.browseCursor && m.pane == paneBrowse, line)
		}
	}
	if b.Len() == 0 {
		return subtleStyle.Render("(empty)")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderQueue() string {
	if len(m.snapshot.Queue) == 0 {
		return subtleStyle.Render("queue is empty, press p on an artist or album")
	}
	var b strings.Builder
	for i, it := range m.snapshot.Queue {
		marker := "  "
		title := it.Title()
		if i == m.snapshot.CurrentSong {
			marker = "▶ "
			title = playingStyle.Render(title)
		}
		m.writeLine(&b, i == m.queueCursor && m.pane == paneQueue, marker+title)
		if i == m.snapshot.ExpandedRow {
			b.WriteString(detailStyle.Render(renderDetails(it)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) writeLine(b *strings.Builder, selected bool, line string) {
	if selected {
		line = cursorLineStyle.Render(line)
	}
	b.WriteString(line)
	b.WriteString("\n")
}

// renderDetails renders the expanded queue row.
func renderDetails(it song.Item) string {
	r, ok := it.(song.Resolved)
	if !ok {
		return "metadata pending: " + it.MetaFile()
	}
	s := r.Song
	lines := []string{
		fmt.Sprintf("artist: %s", s.Artist),
		fmt.Sprintf("album:  %s", s.Album),
		fmt.Sprintf("track:  %d", s.Track),
	}
	if s.FileType != "" {
		lines = append(lines, "type:   "+s.FileType)
	}
	if r.ShowSize != "" {
		lines = append(lines, "size:   "+r.ShowSize)
	}
	if r.LastModified != "" {
		lines = append(lines, "date:   "+r.LastModified)
	}
	return strings.Join(lines, "\n")
}
