// Package catalog provides the Node domain entity of the music catalog.
package catalog

// Node is one level of the catalog tree.
// The root holds artists, artists hold albums, and only albums hold song files.
type Node struct {
	Name      string   `json:"name"`                 // Artist or album name
	Children  []Node   `json:"children,omitempty"`   // Artists (root) or albums (artist)
	SongFiles []string `json:"song_files,omitempty"` // Song meta file ids (album only)
	FirstSong string   `json:"first_song,omitempty"` // First playable song under this node
}

// SongCount returns the total count of song files under this node, including children.
func (n *Node) SongCount() int {
	count := len(n.SongFiles)
	for i := range n.Children {
		count += n.Children[i].SongCount()
	}
	return count
}

// AllSongFiles flattens the song files under this node, children first in order.
func (n *Node) AllSongFiles() []string {
	files := make([]string, 0, n.SongCount())
	return n.appendSongFiles(files)
}

func (n *Node) appendSongFiles(files []string) []string {
	for i := range n.Children {
		files = n.Children[i].appendSongFiles(files)
	}
	return append(files, n.SongFiles...)
}

// Child returns the child at idx, or nil if idx is out of range.
func (n *Node) Child(idx int) *Node {
	if idx < 0 || idx >= len(n.Children) {
		return nil
	}
	return &n.Children[idx]
}
