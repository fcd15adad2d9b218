package browser

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/discographic/internal/domain/catalog"
	"github.com/osa030/discographic/internal/domain/song"
)

// testCollection returns a catalog with two artists.
// Artist A has one album with three songs, artist B two albums with two and one songs.
func testCollection() *catalog.Node {
	return &catalog.Node{
		Name: "ArtistAlbumDateCollection",
		Children: []catalog.Node{
			{
				Name:      "Artist A",
				FirstSong: "a1.json",
				Children: []catalog.Node{
					{Name: "Album A1", FirstSong: "a1.mp3", SongFiles: []string{"a1.json", "a2.json", "a3.json"}},
				},
			},
			{
				Name:      "Artist B",
				FirstSong: "b1.json",
				Children: []catalog.Node{
					{Name: "Album B1", FirstSong: "b1.flac", SongFiles: []string{"b1.json", "b2.json"}},
					{Name: "Album B2", FirstSong: "b3.flac", SongFiles: []string{"b3.json"}},
					{Name: "Empty"},
				},
			},
		},
	}
}

func testSong(id, ext string) song.Song {
	size := int64(3000000)
	return song.Song{
		File:     id + "." + ext,
		MetaFile: id + ".json",
		Title:    "Song " + id,
		Size:     &size,
	}
}

type fakeCatalog struct {
	mu sync.Mutex

	root       *catalog.Node
	catalogErr error
	metas      map[string]song.Song
	metaErrs   map[string]error
	heads      map[string]song.Head

	gate      chan struct{}
	gated     map[string]bool
	metaCalls int
	headCalls int
}

func newFakeCatalog() *fakeCatalog {
	f := &fakeCatalog{
		root:     testCollection(),
		metas:    make(map[string]song.Song),
		metaErrs: make(map[string]error),
		heads:    make(map[string]song.Head),
		gate:     make(chan struct{}),
		gated:    make(map[string]bool),
	}
	for _, id := range []string{"a1", "a2", "a3"} {
		f.metas[id+".json"] = testSong(id, "mp3")
		f.heads[id+".mp3"] = song.Head{LastModified: "Mon, 02 Jan 2006 15:04:05 GMT"}
	}
	for _, id := range []string{"b1", "b2", "b3"} {
		f.metas[id+".json"] = testSong(id, "flac")
	}
	return f
}

// hold makes lookups of the given meta files block until release is called.
func (f *fakeCatalog) hold(metaFiles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range metaFiles {
		f.gated[m] = true
	}
}

func (f *fakeCatalog) release() {
	close(f.gate)
}

func (f *fakeCatalog) FetchCatalog(ctx context.Context) (*catalog.Node, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.root, nil
}

func (f *fakeCatalog) FetchMetadata(ctx context.Context, metaFile string) (*song.Song, error) {
	f.mu.Lock()
	f.metaCalls++
	gated := f.gated[metaFile]
	err := f.metaErrs[metaFile]
	meta, ok := f.metas[metaFile]
	f.mu.Unlock()

	if gated {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf("unknown meta file: %s", metaFile)
	}
	return &meta, nil
}

func (f *fakeCatalog) FetchResourceHead(ctx context.Context, file string) (song.Head, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headCalls++
	return f.heads[file], nil
}

type fakeDevice struct {
	mu      sync.Mutex
	calls   []string
	loadErr error
	ended   chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{ended: make(chan struct{}, 1)}
}

func (d *fakeDevice) Pause() error {
	d.record("pause")
	return nil
}

func (d *fakeDevice) Load(source string) error {
	d.record("load " + source)
	return d.loadErr
}

func (d *fakeDevice) Play() error {
	d.record("play")
	return nil
}

func (d *fakeDevice) Ended() <-chan struct{} {
	return d.ended
}

func (d *fakeDevice) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]string, len(d.calls))
	copy(result, d.calls)
	return result
}
