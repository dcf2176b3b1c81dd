package handler

import (
	"net/http"
	"strconv"

	"github.com/foundernet/chat-server-go/internal/config"
)

const (
	DefaultLimit = config.DefaultMessageLimit
	MaxLimit     = config.MaxMessageLimit
)

// ParseLimit reads the limit query parameter. Missing or invalid values use
// DefaultLimit and values above MaxLimit are clamped.
func ParseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	switch {
	case err != nil || limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
