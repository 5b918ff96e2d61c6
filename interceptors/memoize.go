// Package interceptors adapts memoized computations to gRPC servers.
package interceptors

import (
	"context"
	"sync"

	memo "github.com/Keksclan/goRawrMemo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// invocation carries the handler and request of the current call into the
// memoized computation.
type invocation struct {
	handler grpc.UnaryHandler
	req     any
}

type invocationKey struct{}

// memoizer lazily builds one Memo per full method name.
type memoizer struct {
	opts []memo.Option

	mu    sync.Mutex
	memos map[string]*memo.Memo[proto.Message]
}

func (m *memoizer) memoFor(fullMethod string) (*memo.Memo[proto.Message], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mm, ok := m.memos[fullMethod]; ok {
		return mm, nil
	}
	opts := append(append([]memo.Option(nil), m.opts...), memo.WithName(fullMethod))
	mm, err := memo.New(callHandler, opts...)
	if err != nil {
		return nil, err
	}
	m.memos[fullMethod] = mm
	return mm, nil
}

func callHandler(ctx context.Context, _ memo.Args) (proto.Message, error) {
	inv, ok := ctx.Value(invocationKey{}).(invocation)
	if !ok {
		return nil, status.Error(codes.Internal, "memoized handler called without a request")
	}
	resp, err := inv.handler(ctx, inv.req)
	if err != nil {
		return nil, err
	}
	msg, ok := resp.(proto.Message)
	if !ok {
		return nil, status.Errorf(codes.Internal, "memoized handler returned %T, not a proto message", resp)
	}
	return msg, nil
}

// MemoizeUnary returns a unary server interceptor that serves repeated
// requests from a per-method memo. Two requests share a result when they
// target the same full method and their deterministic wire encodings are
// equal. Every method gets its own store configured with opts and named
// after the method, so WithName in opts is overridden.
//
// Handler errors are returned as is and never stored. Requests that are not
// proto messages bypass the memo. Responses are cloned on the way out, so a
// caller mutating its response cannot corrupt the stored value.
func MemoizeUnary(opts ...memo.Option) grpc.UnaryServerInterceptor {
	m := &memoizer{
		opts:  opts,
		memos: make(map[string]*memo.Memo[proto.Message]),
	}
	marshal := proto.MarshalOptions{Deterministic: true}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		msg, ok := req.(proto.Message)
		if !ok {
			return handler(ctx, req)
		}
		wire, err := marshal.Marshal(msg)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode request: %v", err)
		}
		mm, err := m.memoFor(info.FullMethod)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "memoize %s: %v", info.FullMethod, err)
		}

		ctx = context.WithValue(ctx, invocationKey{}, invocation{handler: handler, req: req})
		resp, err := mm.Call(ctx, memo.Pos(string(wire)))
		if err != nil {
			return nil, err
		}
		return proto.Clone(resp), nil
	}
}
