package authgw

import (
	"context"
	"time"

	"go.od2.network/bearergw/pkg/bearer"
	"go.od2.network/bearergw/pkg/oauth2err"
	"go.od2.network/bearergw/pkg/token"
	"go.uber.org/zap"
)

// Filter runs token extraction and validation for each request.
type Filter struct {
	Backend Backend
	Log     *zap.Logger
	Metrics *Metrics          // optional
	Now     func() time.Time // defaults to time.Now
}

// NewFilter creates a filter looking up tokens in backend.
func NewFilter(backend Backend, log *zap.Logger) *Filter {
	return &Filter{
		Backend: backend,
		Log:     log,
		Now:     time.Now,
	}
}

// Validator returns a validator with the current time as cutoff.
func (f *Filter) Validator() *Validator {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return NewValidator(f.Backend, now())
}

// Authorize returns the identity a request was authorized for.
//
// Rejections are returned as *oauth2err.Error.
// A cancelled ctx yields ctx.Err() and no outcome.
func (f *Filter) Authorize(ctx context.Context, req bearer.Request) (*Identity, error) {
	return f.authorize(ctx, req, f.logger())
}

func (f *Filter) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}

func (f *Filter) authorize(ctx context.Context, req bearer.Request, log *zap.Logger) (*Identity, error) {
	tok, carrier, err := bearer.ExtractCarrier(req)
	if err != nil {
		f.reject(ctx, log, err)
		return nil, err
	}
	log = log.With(token.Field(tok), zap.Stringer("carrier", carrier))
	id, err := f.Validator().Validate(ctx, tok)
	if err != nil {
		f.reject(ctx, log, err)
		return nil, err
	}
	log.Debug("Admitted", zap.String("user_id", id.ID))
	f.Metrics.observe(ctx, OutcomeAdmitted, "")
	return id, nil
}

func (f *Filter) reject(ctx context.Context, log *zap.Logger, err error) {
	perr, ok := oauth2err.As(err)
	if !ok {
		log.Debug("Aborted", zap.Error(err))
		f.Metrics.observe(ctx, OutcomeAborted, "")
		return
	}
	if perr.Internal {
		log.Error("Token lookup failed", zap.Error(perr.Cause))
	} else {
		log.Info("Rejected",
			zap.String("kind", string(perr.Kind)),
			zap.String("description", perr.Description))
	}
	f.Metrics.observe(ctx, OutcomeRejected, perr.Kind)
}
