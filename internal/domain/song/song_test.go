package song

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{
			name:     "zero",
			size:     0,
			expected: "0 B (0)",
		},
		{
			name:     "bytes",
			size:     512,
			expected: "512 B (512)",
		},
		{
			name:     "megabytes",
			size:     4200000,
			expected: "4.2 MB (4200000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSize(tt.size))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	p := NewPlaceholder("abc.json")

	assert.Equal(t, "abc.json", p.MetaFile())
	assert.Equal(t, "", p.File())
	assert.Equal(t, PlaceholderTitle, p.Title())
	assert.False(t, p.IsResolved())

	p.Playable = "abc.mp3"
	assert.Equal(t, "abc.mp3", p.File())
}

func TestNewResolved(t *testing.T) {
	size := int64(2048)

	tests := []struct {
		name         string
		song         Song
		wantTitle    string
		wantShowSize string
	}{
		{
			name:         "with size and title",
			song:         Song{File: "abc.flac", MetaFile: "abc.json", Title: "Space Dementia", Size: &size},
			wantTitle:    "Space Dementia",
			wantShowSize: "2.0 kB (2048)",
		},
		{
			name:         "without size",
			song:         Song{File: "abc.flac", MetaFile: "abc.json", Title: "Bliss"},
			wantTitle:    "Bliss",
			wantShowSize: "",
		},
		{
			name:         "title falls back to file",
			song:         Song{File: "abc.flac", MetaFile: "abc.json"},
			wantTitle:    "abc.flac",
			wantShowSize: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolved(tt.song)

			assert.True(t, r.IsResolved())
			assert.Equal(t, "abc.json", r.MetaFile())
			assert.Equal(t, "abc.flac", r.File())
			assert.Equal(t, tt.wantTitle, r.Title())
			assert.Equal(t, tt.wantShowSize, r.ShowSize)
			assert.Empty(t, r.LastModified)
		})
	}
}

func TestItem_Variants(t *testing.T) {
	items := []Item{NewPlaceholder("a.json"), NewResolved(Song{MetaFile: "b.json", File: "b.mp3"})}

	var resolved int
	for _, it := range items {
		switch it.(type) {
		case Placeholder:
			assert.False(t, it.IsResolved())
		case Resolved:
			resolved++
			assert.True(t, it.IsResolved())
		}
	}
	assert.Equal(t, 1, resolved)
}
