// Package correlation carries a per-request correlation ID through contexts
// and stamps it on every log record.
package correlation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header used to accept and echo correlation IDs.
const Header = "X-Request-ID"

const maxIncomingLength = 64

type contextKey struct{}

// NewID returns an 8-character hex correlation ID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// FromHeader keeps a client supplied ID when it is short and printable,
// otherwise it generates a fresh one.
func FromHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxIncomingLength {
		return NewID()
	}
	for _, r := range value {
		if r < 0x21 || r > 0x7e {
			return NewID()
		}
	}
	return value
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID extracts the correlation ID from ctx, returning ("", false) if not present.
func ID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Handler injects a "correlation_id" attribute into records whose context
// carries one.
type Handler struct {
	inner slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ID(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
