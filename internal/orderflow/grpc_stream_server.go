package orderflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/pkg/enums/bucket"
	"github.com/appetiteclub/orderflow/pkg/event"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	BoardServiceName = "orderflow.v1.OrderBoard"
	watchOrdersPath  = "/" + BoardServiceName + "/WatchOrders"

	watcherBuffer = 100
)

// boardServer is the handler type of the OrderBoard service. Requests and
// updates travel as google.protobuf.Struct messages.
type boardServer interface {
	WatchOrders(req *structpb.Struct, stream grpc.ServerStream) error
}

var boardServiceDesc = grpc.ServiceDesc{
	ServiceName: BoardServiceName,
	HandlerType: (*boardServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchOrders",
			Handler:       watchOrdersHandler,
			ServerStreams: true,
		},
	},
}

func watchOrdersHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(boardServer).WatchOrders(req, stream)
}

// BoardUpdate is one change pushed to board watchers.
type BoardUpdate struct {
	EventType     string    `json:"event_type"`
	PreviousState State     `json:"previous_state,omitempty"`
	Order         OrderView `json:"order"`
}

func (u BoardUpdate) matches(filter *bucket.Bucket) bool {
	if filter == nil {
		return true
	}
	if u.Order.State.Bucket() == *filter {
		return true
	}
	return u.PreviousState != "" && u.PreviousState.Bucket() == *filter
}

func (u BoardUpdate) toStruct() (*structpb.Struct, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// BoardStreamServer pushes the live order board to gRPC watchers: the
// current orders on connect, then every accepted change.
type BoardStreamServer struct {
	service *Service
	logger  apt.Logger

	mu       sync.RWMutex
	watchers map[string]chan BoardUpdate
}

func NewBoardStreamServer(service *Service, logger apt.Logger) *BoardStreamServer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BoardStreamServer{
		service:  service,
		logger:   logger,
		watchers: make(map[string]chan BoardUpdate),
	}
}

// RegisterGRPCService registers the OrderBoard service (apt.GRPCServiceRegistrar).
func (s *BoardStreamServer) RegisterGRPCService(server *grpc.Server) {
	server.RegisterService(&boardServiceDesc, s)
}

// WatchOrders streams the board. The optional "bucket" request field keeps
// only orders entering, leaving or staying in that bucket.
func (s *BoardStreamServer) WatchOrders(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()

	var filter *bucket.Bucket
	if name := req.GetFields()["bucket"].GetStringValue(); name != "" {
		filter = bucket.ByName(name)
		if filter == nil {
			return status.Errorf(codes.InvalidArgument, "unknown bucket %q", name)
		}
	}

	watcherID := apt.GenerateNewID().String()
	updates := make(chan BoardUpdate, watcherBuffer)

	s.mu.Lock()
	s.watchers[watcherID] = updates
	s.mu.Unlock()

	s.logger.Info("board watcher connected", "watcher_id", watcherID)

	defer func() {
		s.mu.Lock()
		delete(s.watchers, watcherID)
		s.mu.Unlock()
		s.logger.Info("board watcher disconnected", "watcher_id", watcherID)
	}()

	for _, o := range s.service.List(ListFilter{Bucket: filter}) {
		update := BoardUpdate{EventType: event.EventBoardSnapshot, Order: newOrderView(o)}
		if err := s.send(stream, update); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if !update.matches(filter) {
				continue
			}
			if err := s.send(stream, update); err != nil {
				return err
			}
		}
	}
}

func (s *BoardStreamServer) send(stream grpc.ServerStream, update BoardUpdate) error {
	msg, err := update.toStruct()
	if err != nil {
		return status.Errorf(codes.Internal, "encode board update: %v", err)
	}
	if err := stream.SendMsg(msg); err != nil {
		s.logger.Errorf("failed to send board update: %v", err)
		return err
	}
	return nil
}

// BroadcastOrder hands a change to every watcher. Watchers whose buffer is
// full miss the update.
func (s *BoardStreamServer) BroadcastOrder(eventType string, previous State, o Order) {
	update := BoardUpdate{EventType: eventType, PreviousState: previous, Order: newOrderView(o)}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for watcherID, ch := range s.watchers {
		select {
		case ch <- update:
		default:
			s.logger.Info("board watcher too slow, dropping update", "watcher_id", watcherID)
		}
	}
}

func (s *BoardStreamServer) watcherCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers)
}

// BoardClient watches the board of a remote orderflow service.
type BoardClient struct {
	conn grpc.ClientConnInterface
}

func NewBoardClient(conn grpc.ClientConnInterface) *BoardClient {
	return &BoardClient{conn: conn}
}

// Watch opens a board stream; bucketName may be empty.
func (c *BoardClient) Watch(ctx context.Context, bucketName string) (*BoardWatch, error) {
	stream, err := c.conn.NewStream(ctx, &boardServiceDesc.Streams[0], watchOrdersPath)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if bucketName != "" {
		fields["bucket"] = bucketName
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &BoardWatch{stream: stream}, nil
}

type BoardWatch struct {
	stream grpc.ClientStream
}

// Recv blocks for the next update; it returns io.EOF when the server ends
// the stream.
func (w *BoardWatch) Recv() (BoardUpdate, error) {
	msg := new(structpb.Struct)
	if err := w.stream.RecvMsg(msg); err != nil {
		return BoardUpdate{}, err
	}

	data, err := protojson.Marshal(msg)
	if err != nil {
		return BoardUpdate{}, err
	}

	var update BoardUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return BoardUpdate{}, fmt.Errorf("decode board update: %w", err)
	}
	return update, nil
}
