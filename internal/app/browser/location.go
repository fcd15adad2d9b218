package browser

// Kind identifies how deep the browser is in the catalog.
type Kind int

const (
	AtRoot   Kind = iota // Listing artists
	InArtist             // Listing the albums of one artist
	InAlbum              // Listing the songs of one album
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case AtRoot:
		return "root"
	case InArtist:
		return "artist"
	case InAlbum:
		return "album"
	default:
		return "unknown"
	}
}

// Location is the current navigation state.
// Artist is valid for InArtist and InAlbum, Album only for InAlbum; unused indexes are -1.
type Location struct {
	Kind   Kind
	Artist int
	Album  int
}

// RootLocation returns the location of the artist listing.
func RootLocation() Location {
	return Location{Kind: AtRoot, Artist: -1, Album: -1}
}

func artistLocation(artist int) Location {
	return Location{Kind: InArtist, Artist: artist, Album: -1}
}

func albumLocation(artist, album int) Location {
	return Location{Kind: InAlbum, Artist: artist, Album: album}
}

// Depth returns the breadcrumb length for this location (1 = root, 2 = artist, 3 = album).
func (l Location) Depth() int {
	return int(l.Kind) + 1
}

// Crumb is one breadcrumb entry. Idx is the index into the parent's children used to reach it.
type Crumb struct {
	Name string
	Idx  int
}

// HomeCrumb is the fixed first breadcrumb entry.
var HomeCrumb = Crumb{Name: "Home", Idx: -1}
