// Package connect provides the Connect RPC remote control service and client.
package connect

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/discographic/internal/app/browser"
	"github.com/osa030/discographic/internal/app/notification"
)

// RemoteServiceName is the fully-qualified name of the remote control service.
const RemoteServiceName = "discographic.v1.RemoteService"

// Fully-qualified procedure names of the remote control service.
const (
	RemoteServiceLoadCollectionProcedure = "/" + RemoteServiceName + "/LoadCollection"
	RemoteServiceBrowseIntoProcedure     = "/" + RemoteServiceName + "/BrowseInto"
	RemoteServiceBrowseUpProcedure       = "/" + RemoteServiceName + "/BrowseUp"
	RemoteServiceLoadQueueItemProcedure  = "/" + RemoteServiceName + "/LoadQueueItem"
	RemoteServiceChangeSongProcedure     = "/" + RemoteServiceName + "/ChangeSong"
	RemoteServiceShowQueueInfoProcedure  = "/" + RemoteServiceName + "/ShowQueueInfo"
	RemoteServiceGetStateProcedure       = "/" + RemoteServiceName + "/GetState"
	RemoteServiceWatchProcedure          = "/" + RemoteServiceName + "/Watch"
)

// Controller is the browse/queue controller driven by the service.
type Controller interface {
	LoadCollection(ctx context.Context) error
	BrowseInto(idx int) error
	BrowseUp(crumbIdx int) error
	LoadQueueItem(idx int) error
	ChangeSong(delta int) error
	ShowQueueInfo(idx int)
	Snapshot() browser.Snapshot
}

// RemoteService implements the remote control RPC.
type RemoteService struct {
	controller    Controller
	notifications *notification.Manager

	done     chan struct{}
	doneOnce sync.Once
}

// NewRemoteService creates a new RemoteService.
func NewRemoteService(controller Controller, notifications *notification.Manager) *RemoteService {
	return &RemoteService{
		controller:    controller,
		notifications: notifications,
		done:          make(chan struct{}),
	}
}

// NewRemoteServiceHandler builds an HTTP handler for the service.
// It returns the path on which to mount the handler and the handler itself.
func NewRemoteServiceHandler(svc *RemoteService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(RemoteServiceLoadCollectionProcedure, connect.NewUnaryHandler(RemoteServiceLoadCollectionProcedure, svc.LoadCollection, opts...))
	mux.Handle(RemoteServiceBrowseIntoProcedure, connect.NewUnaryHandler(RemoteServiceBrowseIntoProcedure, svc.BrowseInto, opts...))
	mux.Handle(RemoteServiceBrowseUpProcedure, connect.NewUnaryHandler(RemoteServiceBrowseUpProcedure, svc.BrowseUp, opts...))
	mux.Handle(RemoteServiceLoadQueueItemProcedure, connect.NewUnaryHandler(RemoteServiceLoadQueueItemProcedure, svc.LoadQueueItem, opts...))
	mux.Handle(RemoteServiceChangeSongProcedure, connect.NewUnaryHandler(RemoteServiceChangeSongProcedure, svc.ChangeSong, opts...))
	mux.Handle(RemoteServiceShowQueueInfoProcedure, connect.NewUnaryHandler(RemoteServiceShowQueueInfoProcedure, svc.ShowQueueInfo, opts...))
	mux.Handle(RemoteServiceGetStateProcedure, connect.NewUnaryHandler(RemoteServiceGetStateProcedure, svc.GetState, opts...))
	mux.Handle(RemoteServiceWatchProcedure, connect.NewServerStreamHandler(RemoteServiceWatchProcedure, svc.Watch, opts...))
	return "/" + RemoteServiceName + "/", mux
}

// Shutdown ends all open watch streams.
func (s *RemoteService) Shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

// LoadCollection reloads the catalog.
func (s *RemoteService) LoadCollection(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	if err := s.controller.LoadCollection(ctx); err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return s.stateResponse()
}

// BrowseInto descends into an entry of the current listing.
func (s *RemoteService) BrowseInto(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	idx, err := intField(req.Msg, "idx")
	if err != nil {
		return nil, err
	}
	if err := s.controller.BrowseInto(idx); err != nil {
		return nil, toConnectError(err)
	}
	return s.stateResponse()
}

// BrowseUp returns to a breadcrumb level.
func (s *RemoteService) BrowseUp(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	idx, err := intField(req.Msg, "idx")
	if err != nil {
		return nil, err
	}
	if err := s.controller.BrowseUp(idx); err != nil {
		return nil, toConnectError(err)
	}
	return s.stateResponse()
}

// LoadQueueItem replaces the queue with an entry of the current listing.
func (s *RemoteService) LoadQueueItem(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	idx, err := intField(req.Msg, "idx")
	if err != nil {
		return nil, err
	}
	if err := s.controller.LoadQueueItem(idx); err != nil {
		return nil, toConnectError(err)
	}
	return s.stateResponse()
}

// ChangeSong moves the current song.
// Hitting the end of the queue is reported in the response, not as an RPC error.
func (s *RemoteService) ChangeSong(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	delta, err := intField(req.Msg, "delta")
	if err != nil {
		return nil, err
	}

	success, message := true, "Song changed"
	if err := s.controller.ChangeSong(delta); err != nil {
		success, message = false, err.Error()
	}

	resp, err := structpb.NewStruct(map[string]any{
		"success":      success,
		"message":      message,
		"current_song": s.controller.Snapshot().CurrentSong,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(resp), nil
}

// ShowQueueInfo toggles the expanded queue row.
func (s *RemoteService) ShowQueueInfo(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	idx, err := intField(req.Msg, "idx")
	if err != nil {
		return nil, err
	}
	s.controller.ShowQueueInfo(idx)
	return s.stateResponse()
}

// GetState returns the current state.
func (s *RemoteService) GetState(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.stateResponse()
}

// Watch streams the current state followed by every change.
func (s *RemoteService) Watch(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	initial, err := initialStateStruct(NewState(s.controller.Snapshot()))
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := s.notifications.Subscribe(adapter)
	defer s.notifications.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("connect: watch started: subscription=%s", subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

func (s *RemoteService) stateResponse() (*connect.Response[structpb.Struct], error) {
	st, err := NewState(s.controller.Snapshot()).ToStruct()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

// intField reads a required integer field.
func intField(msg *structpb.Struct, name string) (int, error) {
	v, ok := msg.GetFields()[name]
	if !ok {
		return 0, connect.NewError(connect.CodeInvalidArgument, errors.Newf("missing field: %s", name))
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, connect.NewError(connect.CodeInvalidArgument, errors.Newf("field %s must be a number", name))
	}
	if n.NumberValue != float64(int(n.NumberValue)) {
		return 0, connect.NewError(connect.CodeInvalidArgument, errors.Newf("field %s must be an integer", name))
	}
	return int(n.NumberValue), nil
}

// toConnectError maps controller errors to RPC codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, browser.ErrNotLoaded):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, browser.ErrIndexOutOfRange),
		errors.Is(err, browser.ErrCannotDescend),
		errors.Is(err, browser.ErrQueueScope),
		errors.Is(err, browser.ErrEmptySelection):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, browser.ErrQueueBoundary):
		return connect.NewError(connect.CodeOutOfRange, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	msg, err := notificationToStruct(n)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(msg)
}
