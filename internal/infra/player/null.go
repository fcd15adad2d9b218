package player

import (
	"context"
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Null is a device that only logs what it is asked to do. Its tracks never end.
type Null struct {
	mu     sync.Mutex
	source string
	paused bool
	ended  chan struct{}
}

// NewNull creates a new null device.
func NewNull() *Null {
	return &Null{paused: true, ended: make(chan struct{})}
}

func (n *Null) Open(ctx context.Context) error {
	zlog.Info().Msg("player: using null playback device")
	return nil
}

func (n *Null) Pause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paused = true
	zlog.Debug().Msg("player: null pause")
	return nil
}

func (n *Null) Load(source string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.source = source
	zlog.Debug().Msgf("player: null load: %s", source)
	return nil
}

func (n *Null) Play() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paused = false
	zlog.Debug().Msgf("player: null play: %s", n.source)
	return nil
}

func (n *Null) Ended() <-chan struct{} {
	return n.ended
}

func (n *Null) Close() error {
	return nil
}

// Source returns the loaded source and whether it is playing.
func (n *Null) Source() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.source, !n.paused
}
