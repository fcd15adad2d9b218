// Package song provides the Song domain entity and the queue/browse Item variants.
package song

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Song represents the metadata record served for one song file.
type Song struct {
	File        string    `json:"file"`                   // audio hash.ext
	MetaFile    string    `json:"meta_file"`              // audio hash.json
	Size        *int64    `json:"size,omitempty"`         // size in bytes, nil if not reported
	ModTime     time.Time `json:"mod_time"`               // last modified time
	Album       string    `json:"album"`                  // Album name
	Artist      string    `json:"artist"`                 // Track artist
	AlbumArtist string    `json:"album_artist,omitempty"` // Album artist
	Composer    string    `json:"composer,omitempty"`     // Composer
	Title       string    `json:"title,omitempty"`        // Track title
	Track       int       `json:"track"`                  // Track number within the album
	Disc        int       `json:"disc,omitempty"`         // Disc number
	Art         string    `json:"art,omitempty"`          // artwork hash.ext
	Comment     string    `json:"comment,omitempty"`      // Freeform text
	FileType    string    `json:"file_type,omitempty"`    // ex. FLAC, MP3, M4A
	Date        string    `json:"date,omitempty"`         // Release date, ideally ISO-8601
}

// Head is the result of a header-only probe of a playable resource.
type Head struct {
	LastModified  string // Last-Modified header, empty if absent
	ContentType   string
	ContentLength int64
}

// PlaceholderTitle is shown for items whose metadata has not arrived yet.
const PlaceholderTitle = "..."

// Item is a song entry in the browse list or the play queue.
// It is either a Placeholder or a Resolved record.
type Item interface {
	// MetaFile returns the id used to look up the item's metadata.
	MetaFile() string
	// File returns the playable resource id, or "" if not known yet.
	File() string
	// Title returns the display title.
	Title() string
	// IsResolved reports whether metadata has been resolved.
	IsResolved() bool

	isItem()
}

// Placeholder is an item whose metadata has not been resolved.
type Placeholder struct {
	Meta     string
	Playable string // set eagerly for the first queue entry only
}

// NewPlaceholder creates a placeholder for the given meta file id.
func NewPlaceholder(metaFile string) Placeholder {
	return Placeholder{Meta: metaFile}
}

func (p Placeholder) MetaFile() string { return p.Meta }
func (p Placeholder) File() string     { return p.Playable }
func (p Placeholder) Title() string    { return PlaceholderTitle }
func (p Placeholder) IsResolved() bool { return false }
func (p Placeholder) isItem()          {}

// Resolved is an item that carries its full metadata record.
type Resolved struct {
	Song         Song
	ShowSize     string // human readable size, empty if the record has no size
	LastModified string // from the resource head, empty until known
}

// NewResolved creates a resolved item, deriving the display size from the record.
func NewResolved(s Song) Resolved {
	r := Resolved{Song: s}
	if s.Size != nil {
		r.ShowSize = FormatSize(*s.Size)
	}
	return r
}

func (r Resolved) MetaFile() string { return r.Song.MetaFile }
func (r Resolved) File() string     { return r.Song.File }
func (r Resolved) IsResolved() bool { return true }
func (r Resolved) isItem()          {}

// Title returns the song title, falling back to the file id.
func (r Resolved) Title() string {
	if r.Song.Title != "" {
		return r.Song.Title
	}
	return r.Song.File
}

// FormatSize renders a byte count as "<human> (<bytes>)", ex. "4.2 MB (4200000)".
func FormatSize(size int64) string {
	if size < 0 {
		return fmt.Sprintf("%d", size)
	}
	return fmt.Sprintf("%s (%d)", humanize.Bytes(uint64(size)), size)
}
