package player

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/discographic/internal/infra/config"
)

// fakeMpv answers IPC commands like mpv and can push events to every client.
type fakeMpv struct {
	listener net.Listener

	mu       sync.Mutex
	conns    []net.Conn
	commands [][]any
	failWith string
}

func newFakeMpv(t *testing.T) (*fakeMpv, string) {
	t.Helper()
	// unix socket paths are limited in length, keep it short
	dir, err := os.MkdirTemp("", "mpv")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "ipc.sock")
	l, err := net.Listen("unix", path)
	require.NoError(t, err)

	f := &fakeMpv{listener: l}
	go f.accept()
	t.Cleanup(f.close)
	return f, path
}

func (f *fakeMpv) accept() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		go f.serve(conn)
	}
}

func (f *fakeMpv) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd MpvCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}
		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		status := "success"
		if f.failWith != "" {
			status = f.failWith
		}
		f.mu.Unlock()

		// Unrelated event first, as mpv interleaves them with replies
		f.write(conn, MpvMessage{Event: "playback-restart"})
		f.write(conn, MpvMessage{Error: status, RequestID: cmd.RequestID})
	}
}

func (f *fakeMpv) write(conn net.Conn, msg MpvMessage) {
	data, _ := json.Marshal(msg)
	_, _ = conn.Write(append(data, '\n'))
}

func (f *fakeMpv) broadcast(msg MpvMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		f.write(c, msg)
	}
}

func (f *fakeMpv) connCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

func (f *fakeMpv) Commands() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]any(nil), f.commands...)
}

func (f *fakeMpv) close() {
	f.listener.Close()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		c.Close()
	}
}

func openAttached(t *testing.T) (*Mpv, *fakeMpv) {
	t.Helper()
	fake, path := newFakeMpv(t)
	p := NewMpv(MpvSettings{SocketPath: path, Attach: true, StartTimeoutMs: 2000})
	require.NoError(t, p.Open(context.Background()))
	t.Cleanup(func() { p.Close() })
	assert.Eventually(t, func() bool { return fake.connCount() == 1 }, time.Second, 5*time.Millisecond)
	return p, fake
}

func TestMpv_Commands(t *testing.T) {
	p, fake := openAttached(t)

	require.NoError(t, p.Pause())
	require.NoError(t, p.Load("http://localhost:8080/music/song/aaa.mp3"))
	require.NoError(t, p.Play())

	assert.Equal(t, [][]any{
		{"set_property", "pause", true},
		{"loadfile", "http://localhost:8080/music/song/aaa.mp3", "replace"},
		{"set_property", "pause", false},
	}, fake.Commands())
}

func TestMpv_CommandError(t *testing.T) {
	p, fake := openAttached(t)
	fake.mu.Lock()
	fake.failWith = "invalid parameter"
	fake.mu.Unlock()

	err := p.Load("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")
}

func TestMpv_Ended(t *testing.T) {
	p, fake := openAttached(t)

	// Replacing a file is not the end of a track
	fake.broadcast(MpvMessage{Event: "end-file", Reason: "stop"})
	select {
	case <-p.Ended():
		t.Fatal("unexpected ended signal for reason stop")
	case <-time.After(50 * time.Millisecond):
	}

	fake.broadcast(MpvMessage{Event: "end-file", Reason: "eof"})
	select {
	case <-p.Ended():
	case <-time.After(time.Second):
		t.Fatal("expected ended signal")
	}
}

func TestMpv_OpenMissingSocket(t *testing.T) {
	p := NewMpv(MpvSettings{SocketPath: filepath.Join(t.TempDir(), "none.sock"), Attach: true})
	assert.Error(t, p.Open(context.Background()))
	assert.NoError(t, p.Close())
}

func TestMpv_OpenMissingBinary(t *testing.T) {
	p := NewMpv(MpvSettings{
		Binary:         "discographic-no-such-mpv",
		SocketPath:     filepath.Join(t.TempDir(), "mpv.sock"),
		StartTimeoutMs: 200,
	})
	assert.Error(t, p.Open(context.Background()))
}

func TestMpv_CloseStopsListener(t *testing.T) {
	_, path := newFakeMpv(t)
	p := NewMpv(MpvSettings{SocketPath: path, Attach: true})
	require.NoError(t, p.Open(context.Background()))

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.PlaybackConfig
		wantType any
		wantErr  bool
	}{
		{
			name:     "mpv with defaults",
			cfg:      config.PlaybackConfig{Type: "mpv"},
			wantType: &Mpv{},
		},
		{
			name: "mpv with settings",
			cfg: config.PlaybackConfig{Type: "mpv", Settings: map[string]any{
				"socket_path": "/tmp/test.sock",
				"attach":      true,
				"extra_args":  []any{"--volume=50"},
			}},
			wantType: &Mpv{},
		},
		{
			name:    "mpv with bad timeout",
			cfg:     config.PlaybackConfig{Type: "mpv", Settings: map[string]any{"start_timeout_ms": 5}},
			wantErr: true,
		},
		{
			name:     "null",
			cfg:      config.PlaybackConfig{Type: "null"},
			wantType: &Null{},
		},
		{
			name:    "unknown",
			cfg:     config.PlaybackConfig{Type: "vlc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, device)
		})
	}
}

func TestNewFromConfig_MpvSettings(t *testing.T) {
	device, err := NewFromConfig(config.PlaybackConfig{Type: "mpv", Settings: map[string]any{
		"attach":     true,
		"extra_args": []any{"--volume=50"},
	}})
	require.NoError(t, err)

	mpv := device.(*Mpv)
	assert.Equal(t, MpvSettings{
		Binary:         "mpv",
		SocketPath:     "/tmp/discographic-mpv.sock",
		Attach:         true,
		ExtraArgs:      []string{"--volume=50"},
		StartTimeoutMs: 2000,
	}, mpv.settings)
}

func TestNull(t *testing.T) {
	n := NewNull()
	require.NoError(t, n.Open(context.Background()))
	require.NoError(t, n.Pause())
	require.NoError(t, n.Load("/music/song/aaa.mp3"))
	require.NoError(t, n.Play())

	source, playing := n.Source()
	assert.Equal(t, "/music/song/aaa.mp3", source)
	assert.True(t, playing)
	assert.NoError(t, n.Close())
}
