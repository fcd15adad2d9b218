package browser

// ChangeKind represents what part of the controller state changed.
type ChangeKind int

const (
	ChangeCollectionLoaded ChangeKind = iota // Collection (re)loaded, browser back at root
	ChangeBrowseList                         // Browse list replaced (navigation)
	ChangeBrowseItem                         // One browse item replaced in place
	ChangeQueue                              // Play queue replaced
	ChangeQueueItem                          // One queue item replaced in place
	ChangeCurrentSong                        // Current song pointer moved
	ChangeExpandedRow                        // Expanded queue row toggled
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCollectionLoaded:
		return "collection_loaded"
	case ChangeBrowseList:
		return "browse_list"
	case ChangeBrowseItem:
		return "browse_item"
	case ChangeQueue:
		return "queue"
	case ChangeQueueItem:
		return "queue_item"
	case ChangeCurrentSong:
		return "current_song"
	case ChangeExpandedRow:
		return "expanded_row"
	default:
		return "unknown"
	}
}

// Change is published on every state mutation.
// Index is the affected position for item, song and row changes, -1 otherwise.
// Generation identifies the list incarnation for list and item changes.
type Change struct {
	Kind       ChangeKind
	Index      int
	Generation uint64
}
