package authgw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.od2.network/bearergw/pkg/oauth2err"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestInterceptor_Unary(t *testing.T) {
	i := &Interceptor{Filter: newTestFilter(t)}
	unary := i.Unary()
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		id, err := IdentityFromContext(ctx)
		if err != nil {
			return nil, err
		}
		return id.ID, nil
	}
	call := func(ctx context.Context, kv ...string) (interface{}, error) {
		if len(kv) > 0 {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(kv...))
		}
		return unary(ctx, nil, info, handler)
	}

	t.Run("Admitted", func(t *testing.T) {
		resp, err := call(context.Background(), "authorization", "Bearer abc123")
		require.NoError(t, err)
		assert.Equal(t, "u1", resp)
	})
	t.Run("Missing", func(t *testing.T) {
		_, err := call(context.Background())
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := call(context.Background(), "authorization", "Bearer xyz")
		st, ok := status.FromError(err)
		require.True(t, ok)
		assert.Equal(t, codes.Unauthenticated, st.Code())
		assert.Equal(t, "invalid_grant: "+DescInvalidToken, st.Message())
	})
	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := call(ctx, "authorization", "Bearer abc123")
		assert.Equal(t, codes.Canceled, status.Code(err))
	})
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestInterceptor_Stream(t *testing.T) {
	i := &Interceptor{Filter: newTestFilter(t)}
	stream := i.Stream()
	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/Stream"}
	var got *Identity
	handler := func(srv interface{}, ss grpc.ServerStream) error {
		var err error
		got, err = IdentityFromContext(ss.Context())
		return err
	}
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer tok"))
	require.NoError(t, stream(nil, &fakeServerStream{ctx: ctx}, info, handler))
	assert.Equal(t, &Identity{ID: "u2"}, got)

	ctx = metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer expired"))
	err := stream(nil, &fakeServerStream{ctx: ctx}, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, oauth2err.InvalidGrantKind.GRPCCode(), status.Code(err))
}
