package bearer

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

// HTTPRequest adapts an *http.Request.
//
// Body parameters are read from PostForm, which the host must have parsed already.
type HTTPRequest struct {
	Req *http.Request
}

// Header returns the first value of the header.
func (r HTTPRequest) Header(name string) string {
	return r.Req.Header.Get(name)
}

// QueryParam returns the first value of the URL query parameter.
func (r HTTPRequest) QueryParam(name string) string {
	return r.Req.URL.Query().Get(name)
}

// BodyParam returns the first value of the parsed form body parameter.
func (r HTTPRequest) BodyParam(name string) string {
	if r.Req.PostForm == nil {
		return ""
	}
	return r.Req.PostForm.Get(name)
}

// Method returns the HTTP method.
func (r HTTPRequest) Method() string {
	return r.Req.Method
}

// MetadataRequest adapts incoming gRPC metadata.
// gRPC has neither query nor body parameters, and every call is a POST.
type MetadataRequest struct {
	MD metadata.MD
}

// MetadataFromContext returns the incoming metadata of a gRPC call.
func MetadataFromContext(ctx context.Context) MetadataRequest {
	md, _ := metadata.FromIncomingContext(ctx)
	return MetadataRequest{MD: md}
}

// Header returns the first metadata value of the key.
func (r MetadataRequest) Header(name string) string {
	vals := r.MD.Get(strings.ToLower(name))
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// QueryParam always returns "".
func (MetadataRequest) QueryParam(string) string { return "" }

// BodyParam always returns "".
func (MetadataRequest) BodyParam(string) string { return "" }

// Method returns POST.
func (MetadataRequest) Method() string { return http.MethodPost }
