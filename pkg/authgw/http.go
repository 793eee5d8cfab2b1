package authgw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"go.od2.network/bearergw/pkg/bearer"
	"go.od2.network/bearergw/pkg/oauth2err"
	"go.uber.org/zap"
)

// ErrorWriter serializes rejections to HTTP responses.
type ErrorWriter interface {
	WriteError(wr http.ResponseWriter, req *http.Request, err *oauth2err.Error)
}

// ErrorResponse is the RFC 6749 error response body.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// JSONErrorWriter writes RFC 6750 error responses.
type JSONErrorWriter struct {
	Realm string
}

// WriteError writes a JSON error body and, except for server errors,
// a WWW-Authenticate challenge.
func (j JSONErrorWriter) WriteError(wr http.ResponseWriter, _ *http.Request, err *oauth2err.Error) {
	h := wr.Header()
	h.Set("Content-Type", "application/json;charset=UTF-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	if !err.Internal {
		h.Set("WWW-Authenticate", j.challenge(err))
	}
	wr.WriteHeader(err.HTTPStatus())
	_ = json.NewEncoder(wr).Encode(&ErrorResponse{
		Error:       string(err.Kind),
		Description: err.PublicDescription(),
	})
}

func (j JSONErrorWriter) challenge(err *oauth2err.Error) string {
	var b strings.Builder
	b.WriteString("Bearer")
	sep := " "
	if j.Realm != "" {
		fmt.Fprintf(&b, "%srealm=%q", sep, j.Realm)
		sep = ", "
	}
	fmt.Fprintf(&b, "%serror=%q", sep, string(err.Kind))
	if desc := err.PublicDescription(); desc != "" {
		fmt.Fprintf(&b, ", error_description=%q", desc)
	}
	return b.String()
}

// Middleware authorizes requests before passing them to next.
// The identity is attached to the request context.
func (f *Filter) Middleware(errWriter ErrorWriter, next http.Handler) http.Handler {
	if errWriter == nil {
		errWriter = JSONErrorWriter{}
	}
	return http.HandlerFunc(func(wr http.ResponseWriter, req *http.Request) {
		log := f.logger().With(zap.String("remote_addr", req.RemoteAddr))
		ctx := req.Context()
		id, err := f.authorize(ctx, bearer.HTTPRequest{Req: req}, log)
		if err != nil {
			if perr, ok := oauth2err.As(err); ok {
				errWriter.WriteError(wr, req, perr)
			}
			return
		}
		next.ServeHTTP(wr, req.WithContext(WithIdentity(ctx, id)))
	})
}

// FormBody parses urlencoded request bodies of up to maxBytes into PostForm,
// so tokens in the body become visible to the filter.
// The body is restored for downstream handlers.
func FormBody(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(wr http.ResponseWriter, req *http.Request) {
		if !isForm(req) {
			next.ServeHTTP(wr, req)
			return
		}
		body, err := ioutil.ReadAll(http.MaxBytesReader(wr, req.Body, maxBytes))
		_ = req.Body.Close()
		if err != nil {
			http.Error(wr, "failed to read request body", http.StatusRequestEntityTooLarge)
			return
		}
		req.Body = ioutil.NopCloser(bytes.NewReader(body))
		if err := req.ParseForm(); err != nil {
			http.Error(wr, "malformed form body", http.StatusBadRequest)
			return
		}
		req.Body = ioutil.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(wr, req)
	})
}

func isForm(req *http.Request) bool {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	ct := req.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.EqualFold(strings.TrimSpace(ct), "application/x-www-form-urlencoded")
}
