package audit

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/foundernet/chat-server-go/internal/util"
)

type EventType string

const (
	EventCodeRequest       EventType = "code_request"
	EventCodeVerifySuccess EventType = "code_verify_success"
	EventCodeVerifyFailure EventType = "code_verify_failure"
	EventInviteRejected    EventType = "invite_rejected"
	EventSessionRejected   EventType = "session_rejected"
	EventStreamRejected    EventType = "stream_rejected"
	EventRateLimitExceed   EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	Email     string
	RoomID    string
	IP        string
	UserAgent string
	Details   map[string]any
}

// Log writes a security audit line. Emails are masked before output.
func Log(event Event) {
	ctx := log.With().
		Str("audit", "security").
		Str("eventType", string(event.Type)).
		Time("timestamp", time.Now())

	if event.Email != "" {
		ctx = ctx.Str("email", util.MaskEmail(event.Email))
	}
	if event.RoomID != "" {
		ctx = ctx.Str("roomId", event.RoomID)
	}
	if event.IP != "" {
		ctx = ctx.Str("ip", event.IP)
	}
	if event.UserAgent != "" {
		ctx = ctx.Str("userAgent", event.UserAgent)
	}
	logger := ctx.Logger()

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	case error:
		return e.AnErr(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = clientIP(r)
	event.UserAgent = r.UserAgent()
	Log(event)
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
