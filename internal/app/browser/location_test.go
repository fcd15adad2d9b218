package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/discographic/internal/domain/song"
)

func TestLocation_Depth(t *testing.T) {
	tests := []struct {
		name     string
		location Location
		want     int
	}{
		{name: "root", location: RootLocation(), want: 1},
		{name: "artist", location: artistLocation(3), want: 2},
		{name: "album", location: albumLocation(3, 1), want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.location.Depth())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "root", AtRoot.String())
	assert.Equal(t, "artist", InArtist.String())
	assert.Equal(t, "album", InAlbum.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestItemList(t *testing.T) {
	var l itemList
	l.reset(placeholders([]string{"x.json", "y.json"}), 7)

	assert.Equal(t, 2, l.len())
	assert.Equal(t, uint64(7), l.generation)

	_, ok := l.at(2)
	assert.False(t, ok)
	assert.False(t, l.replace(-1, song.NewPlaceholder("z.json")))

	snap := l.snapshot()
	assert.True(t, l.replace(1, song.NewResolved(song.Song{MetaFile: "y.json", Title: "Y"})))
	assert.Equal(t, song.PlaceholderTitle, snap[1].Title())

	it, ok := l.at(1)
	assert.True(t, ok)
	assert.Equal(t, "Y", it.Title())
	assert.Equal(t, "x.json", l.items[0].MetaFile())
}

func TestListKind_ItemChange(t *testing.T) {
	assert.Equal(t, ChangeQueueItem, ListQueue.itemChange())
	assert.Equal(t, ChangeBrowseItem, ListBrowse.itemChange())
	assert.Equal(t, "queue", ListQueue.String())
}
