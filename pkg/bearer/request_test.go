package bearer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestHTTPRequest(t *testing.T) {
	t.Run("Header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/resource", nil)
		req.Header.Set("Authorization", "Bearer abc123")
		tok, err := Extract(HTTPRequest{req})
		require.NoError(t, err)
		assert.Equal(t, "abc123", tok)
	})
	t.Run("Query", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/resource?access_token=xyz", nil)
		tok, carrier, err := ExtractCarrier(HTTPRequest{req})
		require.NoError(t, err)
		assert.Equal(t, "xyz", tok)
		assert.Equal(t, CarrierQuery, carrier)
	})
	t.Run("EmptyQuery", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/resource?access_token=", nil)
		_, err := Extract(HTTPRequest{req})
		requireInvalidRequest(t, err, DescNotFound)
	})
	t.Run("ParsedBody", func(t *testing.T) {
		form := url.Values{ParamAccessToken: {"tok"}}
		req := httptest.NewRequest("POST", "/resource", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.NoError(t, req.ParseForm())
		tok, carrier, err := ExtractCarrier(HTTPRequest{req})
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
		assert.Equal(t, CarrierBody, carrier)
	})
	t.Run("UnparsedBody", func(t *testing.T) {
		form := url.Values{ParamAccessToken: {"tok"}}
		req := httptest.NewRequest("POST", "/resource", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		_, err := Extract(HTTPRequest{req})
		requireInvalidRequest(t, err, DescNotFound)
	})
	t.Run("BodyOnGET", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/resource", nil)
		req.PostForm = url.Values{ParamAccessToken: {"tok"}}
		_, err := Extract(HTTPRequest{req})
		requireInvalidRequest(t, err, DescBodyNotPOST)
	})
	t.Run("HeaderAndQuery", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/resource?access_token=tok", nil)
		req.Header.Set("Authorization", "Bearer tok")
		_, err := Extract(HTTPRequest{req})
		requireInvalidRequest(t, err, DescMultipleMethods)
	})
}

func TestMetadataRequest(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer abc123"))
	req := MetadataFromContext(ctx)
	assert.Equal(t, "Bearer abc123", req.Header(HeaderAuthorization))
	assert.Equal(t, http.MethodPost, req.Method())
	tok, err := Extract(req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	_, err = Extract(MetadataFromContext(context.Background()))
	requireInvalidRequest(t, err, DescNotFound)
}
