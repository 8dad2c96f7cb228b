package rpc

import (
	"context"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"io"
)

// Client NewsFeed 客户端
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Publish 发布一条新闻
func (c *Client) Publish(ctx context.Context, item string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, publishMethod, wrapperspb.String(item), new(emptypb.Empty), opts...)
}

// List 读取全部新闻
func (c *Client) List(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	stream, err := c.open(ctx, &serviceDesc.Streams[0], listMethod, opts...)
	if err != nil {
		return nil, err
	}
	var items []string
	for {
		item, err := stream.Recv()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

// Watch 订阅新新闻，ctx 结束时流关闭
func (c *Client) Watch(ctx context.Context, opts ...grpc.CallOption) (*ItemStream, error) {
	return c.open(ctx, &serviceDesc.Streams[1], watchMethod, opts...)
}

func (c *Client) open(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (*ItemStream, error) {
	stream, err := c.cc.NewStream(ctx, desc, method, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(new(emptypb.Empty)); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &ItemStream{stream: stream}, nil
}

// ItemStream 服务端新闻流
type ItemStream struct {
	stream grpc.ClientStream
}

// Recv 读取下一条新闻，流结束时返回 io.EOF
func (s *ItemStream) Recv() (string, error) {
	m := new(wrapperspb.StringValue)
	if err := s.stream.RecvMsg(m); err != nil {
		return "", err
	}
	return m.GetValue(), nil
}
