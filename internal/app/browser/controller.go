// Package browser provides the browse/queue controller of the music library client.
package browser

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/discographic/internal/domain/catalog"
	"github.com/osa030/discographic/internal/domain/song"
)

// DefaultSourcePrefix is the path under which the catalog server streams songs.
const DefaultSourcePrefix = "/music/song/"

// Catalog is the read-only source of the collection and song metadata.
type Catalog interface {
	FetchCatalog(ctx context.Context) (*catalog.Node, error)
	FetchMetadata(ctx context.Context, metaFile string) (*song.Song, error)
	FetchResourceHead(ctx context.Context, file string) (song.Head, error)
}

// Device is the media player driven by the controller.
// Ended delivers one value each time the loaded track finishes playing.
type Device interface {
	Pause() error
	Load(source string) error
	Play() error
	Ended() <-chan struct{}
}

// Config holds controller configuration.
type Config struct {
	SourcePrefix        string // Prepended to a song file id to build the device source
	MetadataConcurrency int    // Maximum metadata lookups in flight per list
	AllowStaleResults   bool   // Let lookups for a replaced list write into the current one
	EventBuffer         int    // Capacity of the change event channel
}

func (c *Config) setDefaults() {
	if c.SourcePrefix == "" {
		c.SourcePrefix = DefaultSourcePrefix
	}
	if c.MetadataConcurrency <= 0 {
		c.MetadataConcurrency = 8
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Location         Location
	Breadcrumb       []Crumb
	Nodes            []catalog.Node // Browse list at root and artist level
	Items            []song.Item    // Browse list at album level
	Queue            []song.Item
	CurrentSong      int // -1 if none
	ExpandedRow      int // -1 if none
	CollectionLoaded bool
	PlaylistLoaded   bool
}

// Controller keeps navigation, the browse list, the play queue and the current song consistent.
type Controller struct {
	mu sync.RWMutex

	catalog Catalog
	device  Device
	config  Config

	// Navigation
	root             catalog.Node
	collectionLoaded bool
	location         Location
	browse           itemList

	// Queue
	queue          itemList
	currentSong    int
	expandedRow    int
	playlistLoaded bool

	generation uint64

	// Events
	eventCh chan Change
	closed  bool

	// In-flight metadata lookups
	pending sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new controller.
func New(cat Catalog, device Device, config Config) (*Controller, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if device == nil {
		return nil, errors.New("playback device is required")
	}
	config.setDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		catalog:     cat,
		device:      device,
		config:      config,
		location:    RootLocation(),
		currentSong: -1,
		expandedRow: -1,
		eventCh:     make(chan Change, config.EventBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Events returns the change event channel. It is closed by Close.
func (c *Controller) Events() <-chan Change {
	return c.eventCh
}

// LoadCollection fetches the catalog and shows its artists.
// On failure the state is left unchanged.
func (c *Controller) LoadCollection(ctx context.Context) error {
	root, err := c.catalog.FetchCatalog(ctx)
	if err != nil {
		zlog.Error().Msgf("browser: failed to load collection: %v", err)
		return errors.Wrap(err, "failed to load collection")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.root = catalog.Node{Name: root.Name, Children: root.Children}
	c.collectionLoaded = len(c.root.Children) > 0
	c.location = RootLocation()
	c.browse.reset(nil, c.nextGenerationLocked())

	zlog.Info().Msgf("browser: collection loaded: artists=%d songs=%d", len(c.root.Children), c.root.SongCount())
	c.sendEventLocked(Change{Kind: ChangeCollectionLoaded, Index: -1, Generation: c.browse.generation})
	return nil
}

// BrowseInto descends into the entry at idx of the current listing.
func (c *Controller) BrowseInto(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.location.Kind {
	case AtRoot:
		if len(c.root.Children) == 0 {
			return ErrNotLoaded
		}
		artist := c.root.Child(idx)
		if artist == nil {
			return errors.Wrapf(ErrIndexOutOfRange, "artist %d of %d", idx, len(c.root.Children))
		}
		c.location = artistLocation(idx)
		zlog.Debug().Msgf("browser: browse into artist: idx=%d name=%s", idx, artist.Name)

	case InArtist:
		artist := c.root.Child(c.location.Artist)
		album := artist.Child(idx)
		if album == nil {
			return errors.Wrapf(ErrIndexOutOfRange, "album %d of %d", idx, len(artist.Children))
		}
		c.location = albumLocation(c.location.Artist, idx)
		c.browse.reset(placeholders(album.SongFiles), c.nextGenerationLocked())
		zlog.Debug().Msgf("browser: browse into album: idx=%d name=%s songs=%d", idx, album.Name, len(album.SongFiles))
		c.resolveLocked(ListBrowse, c.browse.generation, album.SongFiles)

	default:
		return ErrCannotDescend
	}

	c.sendEventLocked(Change{Kind: ChangeBrowseList, Index: -1, Generation: c.browse.generation})
	return nil
}

// BrowseUp truncates the breadcrumb to crumbIdx+1 entries.
// Only the root (0) and artist (1) levels can be reached; crumbIdx of the current level is a no-op.
func (c *Controller) BrowseUp(crumbIdx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	depth := c.location.Depth()
	if crumbIdx < 0 || crumbIdx >= depth {
		return errors.Wrapf(ErrIndexOutOfRange, "breadcrumb %d of %d", crumbIdx, depth)
	}
	if crumbIdx == depth-1 {
		return nil
	}

	switch crumbIdx {
	case 0:
		c.location = RootLocation()
	case 1:
		c.location = artistLocation(c.location.Artist)
	}
	c.browse.reset(nil, c.nextGenerationLocked())

	zlog.Debug().Msgf("browser: browse up: crumb=%d location=%s", crumbIdx, c.location.Kind)
	c.sendEventLocked(Change{Kind: ChangeBrowseList, Index: -1, Generation: c.browse.generation})
	return nil
}

// LoadQueueItem replaces the play queue with the songs of the entry at idx and starts playing it.
// At root the entry is a whole artist discography, at artist level a single album.
func (c *Controller) LoadQueueItem(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var scope *catalog.Node
	switch c.location.Kind {
	case AtRoot:
		if len(c.root.Children) == 0 {
			return ErrNotLoaded
		}
		scope = c.root.Child(idx)
	case InArtist:
		scope = c.root.Child(c.location.Artist).Child(idx)
	default:
		return ErrQueueScope
	}
	if scope == nil {
		return errors.Wrapf(ErrIndexOutOfRange, "entry %d", idx)
	}

	files := scope.AllSongFiles()
	if len(files) == 0 {
		return errors.Wrapf(ErrEmptySelection, "%s", scope.Name)
	}

	items := placeholders(files)
	first := song.NewPlaceholder(files[0])
	first.Playable = scope.FirstSong
	items[0] = first

	c.queue.reset(items, c.nextGenerationLocked())
	c.expandedRow = -1
	c.currentSong = 0
	zlog.Info().Msgf("browser: queue loaded: name=%s songs=%d", scope.Name, len(items))
	c.sendEventLocked(Change{Kind: ChangeQueue, Index: -1, Generation: c.queue.generation})

	err := c.changeSongLocked(0)
	c.playlistLoaded = true
	c.resolveLocked(ListQueue, c.queue.generation, files)
	return err
}

// ChangeSong moves the current song by delta and plays it.
// A target outside the queue returns ErrQueueBoundary and leaves everything untouched.
func (c *Controller) ChangeSong(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.changeSongLocked(delta)
}

func (c *Controller) changeSongLocked(delta int) error {
	target := c.currentSong + delta
	item, ok := c.queue.at(target)
	if !ok {
		zlog.Debug().Msgf("browser: failed changing song: delta=%d target=%d queue=%d", delta, target, c.queue.len())
		return errors.Wrapf(ErrQueueBoundary, "target %d, queue length %d", target, c.queue.len())
	}

	c.currentSong = target
	c.sendEventLocked(Change{Kind: ChangeCurrentSong, Index: target, Generation: c.queue.generation})

	source := c.sourceFor(item)
	zlog.Info().Msgf("browser: playing song: index=%d title=%s source=%s", target, item.Title(), source)
	err := c.playLocked(source)

	c.showQueueInfoLocked(target)
	return err
}

func (c *Controller) playLocked(source string) error {
	if err := c.device.Pause(); err != nil {
		zlog.Warn().Msgf("browser: device pause failed: %v", err)
		return errors.Wrap(err, "failed to pause device")
	}
	if err := c.device.Load(source); err != nil {
		zlog.Warn().Msgf("browser: device load failed: source=%s: %v", source, err)
		return errors.Wrap(err, "failed to load source")
	}
	if err := c.device.Play(); err != nil {
		zlog.Warn().Msgf("browser: device play failed: %v", err)
		return errors.Wrap(err, "failed to start playback")
	}
	return nil
}

// sourceFor builds the device source of an item.
// Until metadata arrives only the meta file id may be known; the catalog server addresses
// songs by hash regardless of extension, so it is used in place of the file id.
func (c *Controller) sourceFor(item song.Item) string {
	file := item.File()
	if file == "" {
		file = item.MetaFile()
		zlog.Debug().Msgf("browser: playable file not resolved yet, using meta file: %s", file)
	}
	return c.config.SourcePrefix + file
}

// ShowQueueInfo toggles the expanded queue row.
func (c *Controller) ShowQueueInfo(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.showQueueInfoLocked(idx)
}

func (c *Controller) showQueueInfoLocked(idx int) {
	if c.expandedRow == idx {
		c.expandedRow = -1
	} else {
		c.expandedRow = idx
	}
	c.sendEventLocked(Change{Kind: ChangeExpandedRow, Index: c.expandedRow})
}

// Breadcrumb returns the path from the root to the current listing.
func (c *Controller) Breadcrumb() []Crumb {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.breadcrumbLocked()
}

func (c *Controller) breadcrumbLocked() []Crumb {
	crumbs := make([]Crumb, 0, c.location.Depth())
	crumbs = append(crumbs, HomeCrumb)
	if c.location.Kind == AtRoot {
		return crumbs
	}
	artist := c.root.Child(c.location.Artist)
	crumbs = append(crumbs, Crumb{Name: artist.Name, Idx: c.location.Artist})
	if c.location.Kind == InAlbum {
		album := artist.Child(c.location.Album)
		crumbs = append(crumbs, Crumb{Name: album.Name, Idx: c.location.Album})
	}
	return crumbs
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Location:         c.location,
		Breadcrumb:       c.breadcrumbLocked(),
		Queue:            c.queue.snapshot(),
		CurrentSong:      c.currentSong,
		ExpandedRow:      c.expandedRow,
		CollectionLoaded: c.collectionLoaded,
		PlaylistLoaded:   c.playlistLoaded,
	}
	switch c.location.Kind {
	case AtRoot:
		s.Nodes = c.root.Children
	case InArtist:
		s.Nodes = c.root.Child(c.location.Artist).Children
	case InAlbum:
		s.Items = c.browse.snapshot()
	}
	return s
}

// Run advances to the next song each time the device reports the end of a track.
// It returns when ctx is done, the controller is closed or the device stops reporting.
func (c *Controller) Run(ctx context.Context) {
	ended := c.device.Ended()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case _, ok := <-ended:
			if !ok {
				return
			}
			zlog.Debug().Msg("browser: track ended, advancing")
			if err := c.ChangeSong(1); err != nil {
				if errors.Is(err, ErrQueueBoundary) {
					zlog.Info().Msg("browser: end of queue reached, playback stopped")
				} else {
					zlog.Warn().Msgf("browser: auto advance failed: %v", err)
				}
			}
		}
	}
}

// Wait blocks until in-flight metadata lookups have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// Close cancels in-flight lookups and closes the event channel.
func (c *Controller) Close() {
	c.cancel()
	c.pending.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
}

func (c *Controller) nextGenerationLocked() uint64 {
	c.generation++
	return c.generation
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Change) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}
