package authgw

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"go.od2.network/bearergw/pkg/token"
)

// StaticStore serves a fixed set of tokens, for development setups.
//
// The TOML file format:
//
//	[[tokens]]
//	value = "abc123"
//	user_id = "u1"
//	expires = 2030-01-01T00:00:00Z
type StaticStore struct {
	tokens map[token.Fingerprint]TokenInfo
}

type staticFile struct {
	Tokens []staticToken `toml:"tokens"`
}

type staticToken struct {
	Value   string    `toml:"value"`
	UserID  string    `toml:"user_id"`
	Expires time.Time `toml:"expires"`
}

// NewStaticStore creates a store from a map of tokens to records.
func NewStaticStore(tokens map[string]TokenInfo) *StaticStore {
	s := &StaticStore{tokens: make(map[token.Fingerprint]TokenInfo, len(tokens))}
	for tok, info := range tokens {
		s.tokens[token.Hash(tok)] = info
	}
	return s
}

// ReadStaticStore decodes a TOML token list.
func ReadStaticStore(rd io.Reader) (*StaticStore, error) {
	var file staticFile
	if err := toml.NewDecoder(rd).Decode(&file); err != nil {
		return nil, err
	}
	tokens := make(map[string]TokenInfo, len(file.Tokens))
	for i, t := range file.Tokens {
		if t.Value == "" {
			return nil, fmt.Errorf("tokens[%d]: empty value", i)
		}
		if _, ok := tokens[t.Value]; ok {
			return nil, fmt.Errorf("tokens[%d]: duplicate token", i)
		}
		tokens[t.Value] = TokenInfo{
			ExpiresAt: t.Expires,
			UserID:    t.UserID,
		}
	}
	return NewStaticStore(tokens), nil
}

// LoadStaticStore reads a TOML token list from a file.
func LoadStaticStore(path string) (*StaticStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStaticStore(f)
}

// Len returns the number of tokens.
func (s *StaticStore) Len() int {
	return len(s.tokens)
}

// LookupToken returns the record of a token.
func (s *StaticStore) LookupToken(_ context.Context, tok string) (*TokenInfo, error) {
	info, ok := s.tokens[token.Hash(tok)]
	if !ok {
		return nil, ErrUnknown
	}
	return &info, nil
}

// Assert StaticStore implements Backend.
var _ Backend = (*StaticStore)(nil)
