// Package bearer extracts OAuth 2.0 bearer tokens from requests (RFC 6750 section 2).
package bearer

import (
	"net/http"
	"regexp"

	"go.od2.network/bearergw/pkg/oauth2err"
)

// ParamAccessToken is the query and form parameter carrying a token.
const ParamAccessToken = "access_token"

// HeaderAuthorization is the header carrying a token.
const HeaderAuthorization = "Authorization"

// Extraction error descriptions.
const (
	DescNotFound        = "The access token was not found"
	DescMultipleMethods = "Only one method may be used to authenticate at a time (Auth header, GET or POST)."
	DescMalformedHeader = "Malformed auth header"
	DescBodyNotPOST     = "When putting the token in the body, the method must be POST."
)

var headerPattern = regexp.MustCompile(`^Bearer (\S+)$`)

// Request exposes the fields of a request that may carry a token.
// Absent values are returned as empty strings.
type Request interface {
	Header(name string) string
	QueryParam(name string) string
	BodyParam(name string) string
	Method() string
}

// Carrier is a location a token may be presented in.
type Carrier uint8

// Carriers.
const (
	CarrierHeader Carrier = iota + 1
	CarrierQuery
	CarrierBody
)

func (c Carrier) String() string {
	switch c {
	case CarrierHeader:
		return "header"
	case CarrierQuery:
		return "query"
	case CarrierBody:
		return "body"
	default:
		return "unknown"
	}
}

// Presented is a token candidate found in a carrier.
type Presented struct {
	Carrier Carrier
	Value   string
}

// Carriers returns every carrier of the request holding a non-empty value.
func Carriers(req Request) []Presented {
	var found []Presented
	if v := req.Header(HeaderAuthorization); v != "" {
		found = append(found, Presented{CarrierHeader, v})
	}
	if v := req.QueryParam(ParamAccessToken); v != "" {
		found = append(found, Presented{CarrierQuery, v})
	}
	if v := req.BodyParam(ParamAccessToken); v != "" {
		found = append(found, Presented{CarrierBody, v})
	}
	return found
}

// Extract returns the single bearer token presented with the request.
//
// Exactly one carrier must be used. Errors are *oauth2err.Error of kind invalid_request.
func Extract(req Request) (string, error) {
	tok, _, err := ExtractCarrier(req)
	return tok, err
}

// ExtractCarrier is Extract, additionally returning the carrier used.
func ExtractCarrier(req Request) (string, Carrier, error) {
	found := Carriers(req)
	switch len(found) {
	case 0:
		return "", 0, oauth2err.InvalidRequest(DescNotFound)
	case 1:
	default:
		return "", 0, oauth2err.InvalidRequest(DescMultipleMethods)
	}
	p := found[0]
	switch p.Carrier {
	case CarrierHeader:
		match := headerPattern.FindStringSubmatch(p.Value)
		if match == nil {
			return "", 0, oauth2err.InvalidRequest(DescMalformedHeader)
		}
		return match[1], p.Carrier, nil
	case CarrierBody:
		// TODO Decide whether form tokens require application/x-www-form-urlencoded.
		if req.Method() != http.MethodPost {
			return "", 0, oauth2err.InvalidRequest(DescBodyNotPOST)
		}
	}
	return p.Value, p.Carrier, nil
}
