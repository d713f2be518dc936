package http

import (
	"net/http"
	"testing"
)

func TestRegister_ReturnsUserAndWorkingToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/register", "", map[string]interface{}{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decode(t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	user, _ := body["user"].(map[string]interface{})
	if user == nil || user["email"] != "alice@example.com" {
		t.Fatalf("expected registered user in response, got %v", body["user"])
	}

	// The token must authenticate subsequent requests as that user.
	me := env.do(t, http.MethodGet, "/user", token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("expected status 200 from /user, got %d: %s", me.Code, me.Body.String())
	}
	meBody := decode(t, me)
	meUser, _ := meBody["user"].(map[string]interface{})
	if meUser == nil || meUser["email"] != "alice@example.com" {
		t.Fatalf("expected caller identity, got %v", meBody)
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			name:  "missing name",
			body:  map[string]interface{}{"email": "a@example.com", "password": "password123"},
			field: "name",
		},
		{
			name:  "malformed email",
			body:  map[string]interface{}{"name": "A", "email": "nope", "password": "password123"},
			field: "email",
		},
		{
			name:  "short password",
			body:  map[string]interface{}{"name": "A", "email": "a@example.com", "password": "short"},
			field: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/register", "", tt.body)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d: %s", resp.Code, resp.Body.String())
			}
			body := decode(t, resp)
			errs, _ := body["errors"].(map[string]interface{})
			if errs == nil || errs[tt.field] == nil {
				t.Errorf("expected error keyed on %q, got %v", tt.field, body)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "Alice", "alice@example.com")

	resp := env.do(t, http.MethodPost, "/register", "", map[string]interface{}{
		"name":     "Fake Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLogin_GenericCredentialError(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "Alice", "alice@example.com")

	wrongPwd := env.do(t, http.MethodPost, "/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	unknownEmail := env.do(t, http.MethodPost, "/login", "", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "password123",
	})

	// Both failures carry the same status and the same body.
	if wrongPwd.Code != http.StatusUnprocessableEntity || unknownEmail.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for both, got %d and %d", wrongPwd.Code, unknownEmail.Code)
	}
	if wrongPwd.Body.String() != unknownEmail.Body.String() {
		t.Errorf("credential failures must be indistinguishable:\n%s\n%s",
			wrongPwd.Body.String(), unknownEmail.Body.String())
	}
}

func TestLogin_IssuesAdditionalToken(t *testing.T) {
	env := newTestEnv(t)
	_, registerToken := env.registerUser(t, "Alice", "alice@example.com")

	resp := env.do(t, http.MethodPost, "/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decode(t, resp)
	loginToken, _ := body["token"].(string)
	if loginToken == "" || loginToken == registerToken {
		t.Fatal("expected a fresh token distinct from the registration token")
	}

	// Both tokens stay valid.
	for _, token := range []string{registerToken, loginToken} {
		me := env.do(t, http.MethodGet, "/user", token, nil)
		if me.Code != http.StatusOK {
			t.Errorf("token rejected: %d %s", me.Code, me.Body.String())
		}
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/user", "/messages", "/rooms"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for %s without token, got %d", path, resp.Code)
		}
	}

	resp := env.do(t, http.MethodGet, "/user", "not-a-token", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", resp.Code)
	}
}
