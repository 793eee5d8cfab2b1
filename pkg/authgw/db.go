package authgw

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.od2.network/bearergw/pkg/token"
)

// Database interfaces with the token DB.
// Tokens are stored by fingerprint (see sql/0001-create-access-tokens.sql).
type Database struct {
	DB *sqlx.DB
}

type tokenRow struct {
	UserID  string       `db:"user_id"`
	Expires sql.NullTime `db:"expires"`
}

// LookupToken reads a token from SQL.
func (d *Database) LookupToken(ctx context.Context, tok string) (*TokenInfo, error) {
	const query = "SELECT user_id, expires FROM oauth_access_tokens WHERE token_hash = ?;"
	hash := token.Hash(tok)
	var row tokenRow
	if err := d.DB.GetContext(ctx, &row, query, hash[:]); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknown
	} else if err != nil {
		return nil, err
	}
	info := &TokenInfo{UserID: row.UserID}
	if row.Expires.Valid {
		info.ExpiresAt = row.Expires.Time
	}
	return info, nil
}

// Assert Database implements Backend.
var _ Backend = (*Database)(nil)
