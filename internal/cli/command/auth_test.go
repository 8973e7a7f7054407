package command

import (
	"net/http"
	"strings"
	"testing"
)

func TestAuthAction_PrintsCodeAndKey(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/auth", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_cliente"); got != "alice" {
			t.Errorf("id_cliente = %q, want alice", got)
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"id_cliente":     "alice",
			"qr_code":        "sim-code:abc",
			"session_key":    "cmxk_test",
			"key_expires_in": 600,
			"authenticated":  false,
		})
	})

	if err := authAction(testContext(server, "alice")); err != nil {
		t.Fatalf("authAction: %v", err)
	}
}

func TestAuthAction_RequiresClientID(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	if err := authAction(testContext(server)); err == nil {
		t.Fatal("expected error without CLIENT_ID")
	}
}

func TestTokenAction_ExchangesKey(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/get-token", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"token":      "cmbt_test.sig",
			"expires_in": "24 horas",
		})
	})

	if err := tokenAction(testContext(server, "alice", "cmxk_test")); err != nil {
		t.Fatalf("tokenAction: %v", err)
	}
}

func TestTokenAction_SurfacesInvalidKey(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/get-token", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusUnauthorized,
			"CM-XKEY-4010", "invalid or expired exchange key")
	})

	err := tokenAction(testContext(server, "alice", "cmxk_stale"))
	if err == nil {
		t.Fatal("expected error for rejected key")
	}
	if !strings.Contains(err.Error(), "CM-XKEY-4010") {
		t.Errorf("error %q does not carry the server code", err)
	}
}

func TestTokenAction_PendingSession(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/get-token", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "pending"})
	})

	if err := tokenAction(testContext(server, "alice", "cmxk_test")); err != nil {
		t.Fatalf("pending exchange must not error: %v", err)
	}
}
