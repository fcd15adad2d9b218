// Package catalog provides a client for the discographic catalog server.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/discographic/internal/domain/catalog"
	"github.com/osa030/discographic/internal/domain/song"
)

const (
	catalogPath  = "/music/aad.json"
	metadataPath = "/music/metadata/"
	songPath     = "/music/song/"

	defaultTimeout = 10 * time.Second
)

// Client is a catalog server client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Metadata records are addressed by content hash and never change
	metaCache map[string]song.Song
	cacheMu   sync.RWMutex
}

// Config represents catalog client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return e.Method + " " + e.Path + ": " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid catalog base URL: %s", cfg.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Newf("unsupported catalog URL scheme: %s", u.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metaCache:  make(map[string]song.Song),
	}, nil
}

// SongURLPrefix returns the URL that a song file id is appended to for streaming.
func (c *Client) SongURLPrefix() string {
	return c.baseURL + songPath
}

// FetchCatalog retrieves the artist/album/song tree.
func (c *Client) FetchCatalog(ctx context.Context) (*catalog.Node, error) {
	body, err := c.get(ctx, catalogPath)
	if err != nil {
		return nil, err
	}

	var root catalog.Node
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	zlog.Debug().Msgf("catalog: fetched catalog: name=%s artists=%d", root.Name, len(root.Children))
	return &root, nil
}

// FetchMetadata retrieves the metadata record of one song.
func (c *Client) FetchMetadata(ctx context.Context, metaFile string) (*song.Song, error) {
	if metaFile == "" {
		return nil, errors.New("meta file id is required")
	}

	c.cacheMu.RLock()
	if s, ok := c.metaCache[metaFile]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("catalog: using cached metadata: %s", metaFile)
		return &s, nil
	}
	c.cacheMu.RUnlock()

	body, err := c.get(ctx, metadataPath+url.PathEscape(metaFile))
	if err != nil {
		return nil, err
	}

	var s song.Song
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, errors.Wrapf(err, "failed to parse metadata: %s", metaFile)
	}

	c.cacheMu.Lock()
	c.metaCache[metaFile] = s
	c.cacheMu.Unlock()

	return &s, nil
}

// FetchResourceHead probes a song file without downloading it.
func (c *Client) FetchResourceHead(ctx context.Context, file string) (song.Head, error) {
	if file == "" {
		return song.Head{}, errors.New("file id is required")
	}

	resp, err := c.do(ctx, http.MethodHead, songPath+url.PathEscape(file))
	if err != nil {
		return song.Head{}, err
	}
	defer resp.Body.Close()

	return song.Head{
		LastModified:  resp.Header.Get("Last-Modified"),
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}

// do sends a request and checks the status. The caller closes the body.
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
