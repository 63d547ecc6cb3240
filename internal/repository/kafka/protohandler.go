package kafka

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrUndecodable marks a payload that is not a valid message of the expected
// type. Redelivering it cannot help.
var ErrUndecodable = errors.New("kafka: undecodable payload")

// ProtoHandler unmarshals each value into a fresh M before calling handle.
func ProtoHandler[M proto.Message](newMsg func() M, handle func(context.Context, []byte, M) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		msg := newMsg()
		if err := proto.Unmarshal(value, msg); err != nil {
			decodeFailures.Inc()
			return fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return handle(ctx, key, msg)
	}
}

// StructHandler is ProtoHandler for the structpb payloads the resource topic
// carries.
func StructHandler(handle func(context.Context, []byte, *structpb.Struct) error) Handler {
	return ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} }, handle)
}
