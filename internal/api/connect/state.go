package connect

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/discographic/internal/app/browser"
	"github.com/osa030/discographic/internal/app/notification"
	"github.com/osa030/discographic/internal/domain/song"
)

// State is the wire form of a controller snapshot.
type State struct {
	Location         string      `mapstructure:"location"`
	Breadcrumb       []CrumbInfo `mapstructure:"breadcrumb"`
	Nodes            []NodeInfo  `mapstructure:"nodes"`
	Items            []ItemInfo  `mapstructure:"items"`
	Queue            []ItemInfo  `mapstructure:"queue"`
	CurrentSong      int         `mapstructure:"current_song"`
	ExpandedRow      int         `mapstructure:"expanded_row"`
	CollectionLoaded bool        `mapstructure:"collection_loaded"`
	PlaylistLoaded   bool        `mapstructure:"playlist_loaded"`
}

// CrumbInfo is one breadcrumb entry.
type CrumbInfo struct {
	Name string `mapstructure:"name"`
	Idx  int    `mapstructure:"idx"`
}

// NodeInfo is an artist or album entry of the browse list.
type NodeInfo struct {
	Name      string `mapstructure:"name"`
	SongCount int    `mapstructure:"song_count"`
}

// ItemInfo is a song entry of the browse list or the queue.
type ItemInfo struct {
	MetaFile     string `mapstructure:"meta_file"`
	File         string `mapstructure:"file"`
	Title        string `mapstructure:"title"`
	Resolved     bool   `mapstructure:"resolved"`
	Artist       string `mapstructure:"artist"`
	Album        string `mapstructure:"album"`
	Track        int    `mapstructure:"track"`
	ShowSize     string `mapstructure:"show_size"`
	LastModified string `mapstructure:"last_modified"`
}

// ChangeInfo is the wire form of one notification.
type ChangeInfo struct {
	SequenceNo uint64 `mapstructure:"sequence_no"`
	Kind       string `mapstructure:"kind"`
	Index      int    `mapstructure:"index"`
	Generation uint64 `mapstructure:"generation"`
	Time       string `mapstructure:"time"`
	State      *State `mapstructure:"state"`
}

// KindInitialState marks the first message of a watch stream, which carries the full state.
const KindInitialState = "initial_state"

// NewState converts a controller snapshot.
func NewState(s browser.Snapshot) State {
	state := State{
		Location:         s.Location.Kind.String(),
		Breadcrumb:       make([]CrumbInfo, len(s.Breadcrumb)),
		Nodes:            make([]NodeInfo, len(s.Nodes)),
		Items:            newItemInfos(s.Items),
		Queue:            newItemInfos(s.Queue),
		CurrentSong:      s.CurrentSong,
		ExpandedRow:      s.ExpandedRow,
		CollectionLoaded: s.CollectionLoaded,
		PlaylistLoaded:   s.PlaylistLoaded,
	}
	for i, c := range s.Breadcrumb {
		state.Breadcrumb[i] = CrumbInfo{Name: c.Name, Idx: c.Idx}
	}
	for i := range s.Nodes {
		state.Nodes[i] = NodeInfo{Name: s.Nodes[i].Name, SongCount: s.Nodes[i].SongCount()}
	}
	return state
}

func newItemInfos(items []song.Item) []ItemInfo {
	infos := make([]ItemInfo, len(items))
	for i, it := range items {
		info := ItemInfo{
			MetaFile: it.MetaFile(),
			File:     it.File(),
			Title:    it.Title(),
			Resolved: it.IsResolved(),
		}
		if r, ok := it.(song.Resolved); ok {
			info.Artist = r.Song.Artist
			info.Album = r.Song.Album
			info.Track = r.Song.Track
			info.ShowSize = r.ShowSize
			info.LastModified = r.LastModified
		}
		infos[i] = info
	}
	return infos
}

func (s State) toMap() map[string]any {
	crumbs := make([]any, len(s.Breadcrumb))
	for i, c := range s.Breadcrumb {
		crumbs[i] = map[string]any{"name": c.Name, "idx": c.Idx}
	}
	nodes := make([]any, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = map[string]any{"name": n.Name, "song_count": n.SongCount}
	}
	return map[string]any{
		"location":          s.Location,
		"breadcrumb":        crumbs,
		"nodes":             nodes,
		"items":             itemsToList(s.Items),
		"queue":             itemsToList(s.Queue),
		"current_song":      s.CurrentSong,
		"expanded_row":      s.ExpandedRow,
		"collection_loaded": s.CollectionLoaded,
		"playlist_loaded":   s.PlaylistLoaded,
	}
}

func itemsToList(items []ItemInfo) []any {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = map[string]any{
			"meta_file":     it.MetaFile,
			"file":          it.File,
			"title":         it.Title,
			"resolved":      it.Resolved,
			"artist":        it.Artist,
			"album":         it.Album,
			"track":         it.Track,
			"show_size":     it.ShowSize,
			"last_modified": it.LastModified,
		}
	}
	return list
}

// ToStruct encodes the state as a protobuf Struct.
func (s State) ToStruct() (*structpb.Struct, error) {
	st, err := structpb.NewStruct(s.toMap())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode state")
	}
	return st, nil
}

// DecodeState decodes a state encoded by ToStruct.
func DecodeState(st *structpb.Struct) (*State, error) {
	var state State
	if err := mapstructure.Decode(st.AsMap(), &state); err != nil {
		return nil, errors.Wrap(err, "failed to decode state")
	}
	return &state, nil
}

func notificationToStruct(n *notification.Notification) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(map[string]any{
		"sequence_no": n.SequenceNo,
		"kind":        n.Change.Kind.String(),
		"index":       n.Change.Index,
		"generation":  n.Change.Generation,
		"time":        n.Time.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode notification")
	}
	return st, nil
}

func initialStateStruct(state State) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(map[string]any{
		"sequence_no": 0,
		"kind":        KindInitialState,
		"index":       -1,
		"generation":  0,
		"time":        time.Now().Format(time.RFC3339Nano),
		"state":       state.toMap(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode initial state")
	}
	return st, nil
}

// DecodeChange decodes one watch stream message.
func DecodeChange(st *structpb.Struct) (*ChangeInfo, error) {
	var change ChangeInfo
	if err := mapstructure.Decode(st.AsMap(), &change); err != nil {
		return nil, errors.Wrap(err, "failed to decode change")
	}
	return &change, nil
}
