package player

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	socketCheckInterval = 100 * time.Millisecond
	commandTimeout      = 2 * time.Second
)

// MpvSettings represents mpv device settings.
type MpvSettings struct {
	Binary         string   `mapstructure:"binary" default:"mpv" validate:"required"`
	SocketPath     string   `mapstructure:"socket_path" default:"/tmp/discographic-mpv.sock" validate:"required"`
	Attach         bool     `mapstructure:"attach"` // connect to an mpv that is already running
	ExtraArgs      []string `mapstructure:"extra_args"`
	StartTimeoutMs int      `mapstructure:"start_timeout_ms" default:"2000" validate:"gte=100,lte=60000"`
}

// MpvCommand is one request on the JSON IPC socket.
type MpvCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// MpvMessage is one line received on the JSON IPC socket: either a reply or an event.
type MpvMessage struct {
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID int64  `json:"request_id,omitempty"`
	Event     string `json:"event,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Mpv drives an mpv process over its JSON IPC socket.
type Mpv struct {
	settings MpvSettings

	mu        sync.Mutex
	cmd       *exec.Cmd
	events    net.Conn
	requestID atomic.Int64

	ended chan struct{}
	wg    sync.WaitGroup
}

// NewMpv creates a new mpv device. Open must be called before use.
func NewMpv(settings MpvSettings) *Mpv {
	return &Mpv{
		settings: settings,
		ended:    make(chan struct{}, 1),
	}
}

// Open starts mpv, unless attaching, and subscribes to its events.
func (p *Mpv) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.events != nil {
		return nil
	}
	if !p.settings.Attach {
		if err := p.startProcessLocked(ctx); err != nil {
			return err
		}
	}

	conn, err := net.Dial("unix", p.settings.SocketPath)
	if err != nil {
		p.stopProcessLocked()
		return errors.Wrapf(err, "could not connect to mpv socket: %s", p.settings.SocketPath)
	}
	p.events = conn

	p.wg.Add(1)
	go p.listen(conn)

	zlog.Info().Msgf("player: mpv ready: socket=%s attach=%t", p.settings.SocketPath, p.settings.Attach)
	return nil
}

func (p *Mpv) startProcessLocked(ctx context.Context) error {
	os.Remove(p.settings.SocketPath)

	args := []string{
		"--idle",
		"--input-ipc-server=" + p.settings.SocketPath,
		"--no-video",
		"--no-terminal",
	}
	args = append(args, p.settings.ExtraArgs...)

	zlog.Info().Msgf("player: starting mpv: %s %v", p.settings.Binary, args)
	cmd := exec.Command(p.settings.Binary, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "could not start mpv process: %s", p.settings.Binary)
	}
	p.cmd = cmd

	timeout := time.Duration(p.settings.StartTimeoutMs) * time.Millisecond
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(socketCheckInterval)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(p.settings.SocketPath); err == nil {
			zlog.Debug().Msg("player: mpv socket detected")
			return nil
		}
		select {
		case <-ctx.Done():
			p.stopProcessLocked()
			return ctx.Err()
		case <-deadline.C:
			zlog.Error().Msgf("player: timed out waiting for mpv socket: %s", p.settings.SocketPath)
			p.stopProcessLocked()
			return errors.Newf("mpv process started but socket did not appear at %s", p.settings.SocketPath)
		case <-ticker.C:
		}
	}
}

func (p *Mpv) stopProcessLocked() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Kill(); err != nil {
		zlog.Warn().Msgf("player: failed to terminate mpv: %v", err)
	}
	_ = p.cmd.Wait()
	p.cmd = nil
	os.Remove(p.settings.SocketPath)
}

// listen reads events until the connection is closed.
// A file that finished on its own signals Ended; files replaced by loadfile end with reason "stop" and are ignored.
func (p *Mpv) listen(conn net.Conn) {
	defer p.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg MpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			zlog.Warn().Msgf("player: could not parse line from mpv: %q: %v", scanner.Text(), err)
			continue
		}
		if msg.Event != "end-file" {
			continue
		}
		zlog.Debug().Msgf("player: mpv end-file: reason=%s", msg.Reason)
		if msg.Reason != "eof" {
			continue
		}
		select {
		case p.ended <- struct{}{}:
		default:
			// Previous end not consumed yet
		}
	}
	if err := scanner.Err(); err != nil {
		zlog.Debug().Msgf("player: mpv event stream closed: %v", err)
	}
}

// send writes one command on a fresh connection and waits for its reply.
func (p *Mpv) send(args ...any) (*MpvMessage, error) {
	conn, err := net.DialTimeout("unix", p.settings.SocketPath, commandTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to mpv socket")
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(commandTimeout))

	cmd := MpvCommand{Command: args, RequestID: p.requestID.Add(1)}
	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return nil, errors.Wrap(err, "error sending mpv command")
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg MpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Event != "" || msg.RequestID != cmd.RequestID {
			continue
		}
		if msg.Error != "success" {
			return nil, errors.Newf("mpv command %v failed: %s", args, msg.Error)
		}
		return &msg, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading mpv reply")
	}
	return nil, errors.New("mpv closed the connection without replying")
}

func (p *Mpv) Pause() error {
	_, err := p.send("set_property", "pause", true)
	return err
}

func (p *Mpv) Load(source string) error {
	_, err := p.send("loadfile", source, "replace")
	return err
}

func (p *Mpv) Play() error {
	_, err := p.send("set_property", "pause", false)
	return err
}

func (p *Mpv) Ended() <-chan struct{} {
	return p.ended
}

// Close stops listening for events and terminates mpv if it was started by Open.
func (p *Mpv) Close() error {
	p.mu.Lock()
	if p.events != nil {
		p.events.Close()
		p.events = nil
	}
	p.stopProcessLocked()
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}
