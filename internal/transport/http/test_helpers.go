package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlazarev/chatd/internal/auth"
	"github.com/mlazarev/chatd/internal/config"
	"github.com/mlazarev/chatd/internal/service/messages"
	"github.com/mlazarev/chatd/internal/service/rooms"
	"github.com/mlazarev/chatd/internal/store"
	"github.com/mlazarev/chatd/internal/store/sqlite"
)

// testEnv bundles everything handler tests need.
type testEnv struct {
	server *stdhttp.Server
	store  store.Store
	auth   *auth.Service
}

// newTestEnv builds a server backed by an in-memory SQLite store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	cfg := config.Default()
	cfg.Addr = ":0"
	disabledLogger := zerolog.New(nil)

	server := NewServer(authService, messages.New(st), rooms.New(st), st, &cfg, &disabledLogger)

	return &testEnv{
		server: server,
		store:  st,
		auth:   authService,
	}
}

// registerUser registers a user through the auth service and returns the
// user with a valid bearer token.
func (e *testEnv) registerUser(t *testing.T, name, email string) (*store.User, string) {
	t.Helper()

	user, token, err := e.auth.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", email, err)
	}
	return user, token
}

// do performs a JSON request against the server. An empty token leaves the
// Authorization header unset.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(resp, req)
	return resp
}

// decode unmarshals a response body into a map for loose assertions.
func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return out
}
