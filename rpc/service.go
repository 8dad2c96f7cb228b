package rpc

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"newsfeed/observer"
	"newsfeed/sink"
	"strings"
)

// NewsFeed 服务
//	Publish(StringValue) returns (Empty)：发布一条新闻
//	List(Empty) returns (stream StringValue)：按顺序返回全部新闻
//	Watch(Empty) returns (stream StringValue)：推送调用之后发布的新闻
const (
	serviceName   = "newsfeed.NewsFeed"
	publishMethod = "/" + serviceName + "/Publish"
	listMethod    = "/" + serviceName + "/List"
	watchMethod   = "/" + serviceName + "/Watch"
)

// watchBuffer 每个 Watch 流缓存的新闻数，缓存满时丢弃新新闻
const watchBuffer = 64

var errWatchFull = errors.New("watch buffer full")

type newsFeedServer interface {
	Publish(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	List(*emptypb.Empty, grpc.ServerStream) error
	Watch(*emptypb.Empty, grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*newsFeedServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Publish", Handler: publishHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "List", Handler: listHandler, ServerStreams: true},
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "newsfeed.proto",
}

// Server NewsFeed 服务实现
type Server struct {
	news *observer.News
	log  zerolog.Logger
}

var _ newsFeedServer = (*Server)(nil)

func NewServer(news *observer.News, log zerolog.Logger) *Server {
	return &Server{news: news, log: log}
}

// Register 把服务注册到 grpc 服务器
func Register(s *grpc.Server, srv *Server) {
	s.RegisterService(&serviceDesc, srv)
}

func (s *Server) Publish(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	item := strings.TrimSpace(in.GetValue())
	if item == "" {
		return nil, status.Error(codes.InvalidArgument, "empty news item")
	}
	if err := s.news.OnNewsUpdate(item); err != nil {
		// 新闻已经追加，只是部分观察者失败
		s.log.Warn().Err(err).Msg("notify observers")
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) List(_ *emptypb.Empty, stream grpc.ServerStream) error {
	for _, item := range s.news.Items() {
		if err := stream.SendMsg(wrapperspb.String(item)); err != nil {
			return err
		}
	}
	return nil
}

// Watch 为每个流订阅一个 Relay，流结束时取消订阅
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ch := make(chan string, watchBuffer)
	relay := sink.NewRelay(s.news, chanDeliverer(ch), sink.WithLogger(s.log))
	if err := s.news.Subscribe(relay); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	defer func() {
		if err := s.news.Unsubscribe(relay); err != nil {
			s.log.Warn().Err(err).Msg("unsubscribe watch stream")
		}
	}()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-ch:
			if err := stream.SendMsg(wrapperspb.String(item)); err != nil {
				return err
			}
		}
	}
}

// chanDeliverer 非阻塞地把新闻写入 channel
type chanDeliverer chan string

func (c chanDeliverer) Name() string {
	return "grpc_watch"
}

func (c chanDeliverer) Deliver(_ context.Context, d sink.Delivery) error {
	select {
	case c <- d.Item:
		return nil
	default:
		return errWatchFull
	}
}

func publishHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(newsFeedServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: publishMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(newsFeedServer).Publish(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(newsFeedServer).List(in, stream)
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(newsFeedServer).Watch(in, stream)
}
