package rpc

import (
	"fmt"
	"github.com/golang/protobuf/proto"
	"google.golang.org/grpc/encoding"
)

// CodecName 自定义编码的 content-subtype
//
// 使用方法：
//	1.服务端：导入本包即可，init 函数把编码注册到 grpc
//	2.客户端：grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.CodecName))
const CodecName = "newsfeed"

func init() {
	encoding.RegisterCodec(Codec())
}

// Codec 返回 newsfeed 编码，只接受 proto 消息
func Codec() encoding.Codec {
	return protoCodec{}
}

type protoCodec struct{}

func (protoCodec) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%s codec: %T is not a proto message", CodecName, v)
	}
	return proto.Marshal(msg)
}

func (protoCodec) Unmarshal(data []byte, v interface{}) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%s codec: %T is not a proto message", CodecName, v)
	}
	return proto.Unmarshal(data, msg)
}

func (protoCodec) Name() string {
	return CodecName
}
