package browser

import "github.com/osa030/discographic/internal/domain/song"

// ListKind selects one of the controller's item lists.
type ListKind int

const (
	ListBrowse ListKind = iota // Songs of the album being browsed
	ListQueue                  // Play queue
)

// String returns the string representation of the list kind.
func (k ListKind) String() string {
	switch k {
	case ListBrowse:
		return "browse"
	case ListQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// itemChange returns the change kind published when an item of this list is replaced.
func (k ListKind) itemChange() ChangeKind {
	if k == ListQueue {
		return ChangeQueueItem
	}
	return ChangeBrowseItem
}

// itemList is an index addressable list of items.
// Positions are reserved when the list is reset, so replacing an element never moves another one.
type itemList struct {
	items      []song.Item
	generation uint64
}

// reset replaces the whole list and tags it with a new generation.
func (l *itemList) reset(items []song.Item, generation uint64) {
	l.items = items
	l.generation = generation
}

// at returns the item at i.
func (l *itemList) at(i int) (song.Item, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// replace swaps the item at i. Returns false if i is out of range.
func (l *itemList) replace(i int, item song.Item) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items[i] = item
	return true
}

func (l *itemList) len() int {
	return len(l.items)
}

// snapshot returns a copy of the items.
func (l *itemList) snapshot() []song.Item {
	if l.items == nil {
		return nil
	}
	result := make([]song.Item, len(l.items))
	copy(result, l.items)
	return result
}

func placeholders(metaFiles []string) []song.Item {
	items := make([]song.Item, len(metaFiles))
	for i, f := range metaFiles {
		items[i] = song.NewPlaceholder(f)
	}
	return items
}
