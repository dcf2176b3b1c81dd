package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foundernet/chat-server-go/internal/middleware"
	"github.com/foundernet/chat-server-go/internal/realtime"
	"github.com/foundernet/chat-server-go/internal/repository"
	"github.com/foundernet/chat-server-go/internal/service"
)

type testServer struct {
	*httptest.Server
	registry *realtime.Registry
	store    *repository.MemoryStore
}

type serverOptions struct {
	inviteCode  string
	messageRate int
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	registry := realtime.NewRegistry()

	authService := service.NewAuthService(
		store.AuthCodes(), store.Sessions(), store.Profiles(),
		service.LogCodeSender{}, nil,
		service.AuthConfig{CodeTTL: 10 * time.Minute, SessionTTL: time.Hour, DemoMode: true},
	)

	router := NewRouter(RouterDeps{
		AuthService:      authService,
		SessionValidator: service.NewSessionValidator(store.Sessions(), false),
		MessageService:   service.NewMessageService(store.Messages(), registry),
		ProfileService:   service.NewProfileService(store.Profiles(), opts.inviteCode),
		Registry:         registry,
		MessageLimiter:   middleware.NewRateLimiter(),
		MessageRateLimit: opts.messageRate,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		registry.Close()
		srv.Close()
	})

	return &testServer{Server: srv, registry: registry, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

// login runs the demo-mode code flow and returns a bearer token.
func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()

	resp, body := s.do(t, http.MethodPost, "/api/auth/request-code", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var requested struct {
		DebugCode string `json:"debugCode"`
	}
	require.NoError(t, json.Unmarshal(body, &requested))
	require.Len(t, requested.DebugCode, 6)

	resp, body = s.do(t, http.MethodPost, "/api/auth/verify",
		map[string]string{"email": email, "code": requested.DebugCode}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var verified struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &verified))
	require.NotEmpty(t, verified.Token)
	return verified.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
