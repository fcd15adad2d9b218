package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ChangeSongResult is the outcome of a ChangeSong call.
type ChangeSongResult struct {
	Success     bool
	Message     string
	CurrentSong int
}

// RemoteClient is a client for the remote control service.
type RemoteClient struct {
	loadCollection *connect.Client[emptypb.Empty, structpb.Struct]
	browseInto     *connect.Client[structpb.Struct, structpb.Struct]
	browseUp       *connect.Client[structpb.Struct, structpb.Struct]
	loadQueueItem  *connect.Client[structpb.Struct, structpb.Struct]
	changeSong     *connect.Client[structpb.Struct, structpb.Struct]
	showQueueInfo  *connect.Client[structpb.Struct, structpb.Struct]
	getState       *connect.Client[emptypb.Empty, structpb.Struct]
	watch          *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewRemoteClient constructs a client for the remote control service at baseURL, ex. http://localhost:7700.
func NewRemoteClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RemoteClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &RemoteClient{
		loadCollection: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+RemoteServiceLoadCollectionProcedure, opts...),
		browseInto:     connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RemoteServiceBrowseIntoProcedure, opts...),
		browseUp:       connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RemoteServiceBrowseUpProcedure, opts...),
		loadQueueItem:  connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RemoteServiceLoadQueueItemProcedure, opts...),
		changeSong:     connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RemoteServiceChangeSongProcedure, opts...),
		showQueueInfo:  connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RemoteServiceShowQueueInfoProcedure, opts...),
		getState:       connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+RemoteServiceGetStateProcedure, opts...),
		watch:          connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+RemoteServiceWatchProcedure, opts...),
	}
}

// LoadCollection reloads the catalog on the server.
func (c *RemoteClient) LoadCollection(ctx context.Context) (*State, error) {
	resp, err := c.loadCollection.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return DecodeState(resp.Msg)
}

// BrowseInto descends into the entry at idx.
func (c *RemoteClient) BrowseInto(ctx context.Context, idx int) (*State, error) {
	return c.callWithInt(ctx, c.browseInto, "idx", idx)
}

// BrowseUp returns to the breadcrumb at idx.
func (c *RemoteClient) BrowseUp(ctx context.Context, idx int) (*State, error) {
	return c.callWithInt(ctx, c.browseUp, "idx", idx)
}

// LoadQueueItem replaces the queue with the entry at idx.
func (c *RemoteClient) LoadQueueItem(ctx context.Context, idx int) (*State, error) {
	return c.callWithInt(ctx, c.loadQueueItem, "idx", idx)
}

// ShowQueueInfo toggles the expanded queue row.
func (c *RemoteClient) ShowQueueInfo(ctx context.Context, idx int) (*State, error) {
	return c.callWithInt(ctx, c.showQueueInfo, "idx", idx)
}

// ChangeSong moves the current song by delta.
func (c *RemoteClient) ChangeSong(ctx context.Context, delta int) (*ChangeSongResult, error) {
	req, err := structpb.NewStruct(map[string]any{"delta": delta})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}
	resp, err := c.changeSong.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	fields := resp.Msg.GetFields()
	return &ChangeSongResult{
		Success:     fields["success"].GetBoolValue(),
		Message:     fields["message"].GetStringValue(),
		CurrentSong: int(fields["current_song"].GetNumberValue()),
	}, nil
}

// GetState returns the server state.
func (c *RemoteClient) GetState(ctx context.Context) (*State, error) {
	resp, err := c.getState.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return DecodeState(resp.Msg)
}

// Watch calls fn with each change until the stream ends, ctx is done or fn returns an error.
// The first change carries the full state and has kind KindInitialState.
func (c *RemoteClient) Watch(ctx context.Context, fn func(*ChangeInfo) error) error {
	stream, err := c.watch.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		change, err := DecodeChange(stream.Msg())
		if err != nil {
			return err
		}
		if err := fn(change); err != nil {
			return err
		}
	}
	return stream.Err()
}

func (c *RemoteClient) callWithInt(
	ctx context.Context,
	client *connect.Client[structpb.Struct, structpb.Struct],
	name string,
	value int,
) (*State, error) {
	req, err := structpb.NewStruct(map[string]any{name: value})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return DecodeState(resp.Msg)
}
