package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/capability/sim"
	"github.com/yndnr/chatmesh-go/internal/core/service"
	"github.com/yndnr/chatmesh-go/internal/credstore"
	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
)

type gatewayFixture struct {
	router    http.Handler
	lifecycle *service.LifecycleController
	issuer    *service.ExchangeKeyIssuer
}

func newGatewayFixture(t *testing.T, simOpts sim.Options, configure func(*RouterConfig)) *gatewayFixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := metric.NewNop()

	store, err := credstore.Open(credstore.Options{
		Dir: t.TempDir(),
		Key: bytes.Repeat([]byte{0x2a}, 32),
	}, log)
	if err != nil {
		t.Fatalf("opening credstore: %v", err)
	}

	registry := service.NewSessionRegistry()
	coordinator := service.NewHandshakeCoordinator()
	issuer := service.NewExchangeKeyIssuer()
	credentials, err := service.NewCredentialService(bytes.Repeat([]byte{0x51}, 32))
	if err != nil {
		t.Fatalf("building credential service: %v", err)
	}

	lifecycle := service.NewLifecycleController(
		registry, coordinator, issuer, sim.Factory(simOpts), store, nil, log, metrics)
	status := service.NewStatusReporter(registry, lifecycle, log)

	cfg := RouterConfig{
		Lifecycle:       lifecycle,
		Status:          status,
		Issuer:          issuer,
		Credentials:     credentials,
		Metrics:         metrics,
		Logger:          log,
		CodeWaitTimeout: 2 * time.Second,
		MetricsEnabled:  true,
	}
	if configure != nil {
		configure(&cfg)
	}

	t.Cleanup(func() { lifecycle.Shutdown(context.Background()) })

	return &gatewayFixture{
		router:    NewRouter(cfg),
		lifecycle: lifecycle,
		issuer:    issuer,
	}
}

func (f *gatewayFixture) do(t *testing.T, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

// connect drives a client all the way to CONNECTED and returns its
// bearer credential.
func (f *gatewayFixture) connect(t *testing.T, clientID string) string {
	t.Helper()

	rec := f.do(t, http.MethodGet, "/auth?id_cliente="+clientID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("auth status = %d, body %s", rec.Code, rec.Body.String())
	}
	key, _ := decodeBody(t, rec)["session_key"].(string)
	if key == "" {
		t.Fatal("auth response carries no session_key")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = f.do(t, http.MethodPost, "/get-token", "", map[string]string{
			"id_cliente":  clientID,
			"session_key": key,
		})
		if rec.Code == http.StatusOK {
			body := decodeBody(t, rec)
			if body["status"] == "ok" {
				credential, _ := body["token"].(string)
				if credential == "" {
					t.Fatal("token response carries no credential")
				}
				return credential
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never connected; last status %d body %s",
				rec.Code, rec.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAuthIssuesCodeAndKey(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodGet, "/auth?id_cliente=alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["id_cliente"] != "alice" {
		t.Errorf("unexpected envelope: %v", body)
	}
	if code, _ := body["qr_code"].(string); code == "" {
		t.Error("qr_code is empty")
	}
	if key, _ := body["session_key"].(string); !strings.HasPrefix(key, "cmxk_") {
		t.Errorf("session_key = %q, want cmxk_ prefix", key)
	}
	if body["authenticated"] != false {
		t.Error("fresh handshake must report authenticated=false")
	}
	if body["key_expires_in"] != float64(600) {
		t.Errorf("key_expires_in = %v, want 600", body["key_expires_in"])
	}
}

func TestAuthRequiresClientID(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodGet, "/auth", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "CM-SESS-4001" {
		t.Errorf("error code = %q, want CM-SESS-4001", got)
	}
}

func TestAuthRejectsMalformedClientID(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	for _, id := range []string{"..", ".", "a%2Fb", "a%5Cb"} {
		rec := f.do(t, http.MethodGet, "/auth?id_cliente="+id, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id_cliente=%s: status = %d, want 400", id, rec.Code)
		}
		if got := rec.Header().Get("X-Error-Code"); got != "CM-SESS-4001" {
			t.Errorf("id_cliente=%s: error code = %q, want CM-SESS-4001", id, got)
		}
	}
}

func TestAuthTimesOutWithoutCode(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{StepDelay: 500 * time.Millisecond},
		func(cfg *RouterConfig) { cfg.CodeWaitTimeout = 50 * time.Millisecond })

	rec := f.do(t, http.MethodGet, "/auth?id_cliente=slow", "", nil)
	if rec.Code != http.StatusRequestTimeout {
		t.Fatalf("status = %d, want 408", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "CM-HSHK-4080" {
		t.Errorf("error code = %q", got)
	}
}

func TestGetTokenPendingBeforeConnect(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodGet, "/auth?id_cliente=alice", "", nil)
	key, _ := decodeBody(t, rec)["session_key"].(string)

	rec = f.do(t, http.MethodPost, "/get-token", "", map[string]string{
		"id_cliente":  "alice",
		"session_key": key,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["status"] != "pending" {
		t.Fatalf("status field = %v, want pending", body["status"])
	}

	// A pending exchange must not burn the key.
	if !f.issuer.IsValid("alice", key) {
		t.Error("pending exchange consumed the session key")
	}
}

func TestGetTokenRejectsUnknownKey(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodPost, "/get-token", "", map[string]string{
		"id_cliente":  "alice",
		"session_key": "cmxk_not-a-real-key",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "CM-XKEY-4010" {
		t.Errorf("error code = %q", got)
	}
}

func TestGetTokenKeyIsSingleUse(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)

	rec := f.do(t, http.MethodGet, "/auth?id_cliente=alice", "", nil)
	key, _ := decodeBody(t, rec)["session_key"].(string)

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = f.do(t, http.MethodPost, "/get-token", "", map[string]string{
			"id_cliente":  "alice",
			"session_key": key,
		})
		if rec.Code == http.StatusOK && decodeBody(t, rec)["status"] == "ok" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("exchange never succeeded; last body %s", rec.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = f.do(t, http.MethodPost, "/get-token", "", map[string]string{
		"id_cliente":  "alice",
		"session_key": key,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("second exchange status = %d, want 401", rec.Code)
	}
}

func TestGetTokenMintsBearer(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)

	credential := f.connect(t, "alice")
	if !strings.HasPrefix(credential, "cmbt_") {
		t.Errorf("credential = %q, want cmbt_ prefix", credential)
	}
}

func TestAuthReportsAlreadyConnected(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	f.connect(t, "alice")

	rec := f.do(t, http.MethodGet, "/auth?id_cliente=alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["authenticated"] != true {
		t.Errorf("authenticated = %v, want true", body["authenticated"])
	}
	if body["session_state"] != "CONNECTED" {
		t.Errorf("session_state = %v, want CONNECTED", body["session_state"])
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodGet, "/status", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "CM-CRED-4010" {
		t.Errorf("error code = %q, want CM-CRED-4010", got)
	}

	rec = f.do(t, http.MethodGet, "/status", "cmbt_forged.credential", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged credential status = %d, want 401", rec.Code)
	}
}

func TestStatusReportsConnectedSession(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")

	rec := f.do(t, http.MethodGet, "/status", credential, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["id_cliente"] != "alice" || body["exists"] != true || body["connected"] != true {
		t.Errorf("unexpected report: %v", body)
	}
	if body["session_state"] != "CONNECTED" {
		t.Errorf("session_state = %v", body["session_state"])
	}
	if body["info"] == nil {
		t.Error("connected report carries no profile info")
	}
}

func TestSendMessage(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")

	rec := f.do(t, http.MethodPost, "/send-message", credential, map[string]string{
		"to":      "5511999990000",
		"message": "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if id, _ := body["message_id"].(string); id == "" {
		t.Error("message_id is empty")
	}
}

func TestSendMessageValidatesBody(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")

	rec := f.do(t, http.MethodPost, "/send-message", credential, map[string]string{
		"to": "5511999990000",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMySessionsListsOwnClientOnly(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")
	f.connect(t, "bob")

	rec := f.do(t, http.MethodGet, "/my-sessions", credential, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Sessions []struct {
			ClientID string `json:"id_cliente"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Sessions) != 1 || body.Sessions[0].ClientID != "alice" {
		t.Errorf("sessions = %+v, want only alice", body.Sessions)
	}
}

func TestLogoutTearsDownSession(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")

	rec := f.do(t, http.MethodPost, "/logout", credential, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, body %s", rec.Code, rec.Body.String())
	}

	// The credential outlives the session; status now reports no session.
	rec = f.do(t, http.MethodGet, "/status", credential, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after logout = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["exists"] != false {
		t.Errorf("exists = %v, want false", body["exists"])
	}
	if body["session_state"] != "NOT_FOUND" {
		t.Errorf("session_state = %v, want NOT_FOUND", body["session_state"])
	}
}

func TestPassthroughOperations(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")

	for _, tc := range []struct {
		name   string
		method string
		target string
		body   any
	}{
		{"contacts", http.MethodGet, "/contacts", nil},
		{"chats", http.MethodGet, "/chats", nil},
		{"profile", http.MethodGet, "/profile", nil},
		{"profile picture", http.MethodGet, "/profile-picture?contact=c1", nil},
		{"check number", http.MethodPost, "/check-number",
			map[string]string{"number": "5511999990000"}},
		{"block", http.MethodPost, "/block", map[string]string{"contact": "c1"}},
		{"unblock", http.MethodPost, "/unblock", map[string]string{"contact": "c1"}},
		{"create group", http.MethodPost, "/group",
			map[string]any{"name": "team", "participants": []string{"c1", "c2"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.target, credential, tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPassthroughRequiresConnectedSession(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	credential := f.connect(t, "alice")
	f.do(t, http.MethodPost, "/logout", credential, nil)

	rec := f.do(t, http.MethodGet, "/contacts", credential, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRateLimitThrottles(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, func(cfg *RouterConfig) {
		cfg.RateLimitEnabled = true
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})

	first := f.do(t, http.MethodPost, "/get-token", "", map[string]string{
		"id_cliente": "alice", "session_key": "cmxk_x",
	})
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request already throttled")
	}

	second := f.do(t, http.MethodPost, "/get-token", "", map[string]string{
		"id_cliente": "alice", "session_key": "cmxk_x",
	})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("throttled response carries no Retry-After")
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}

	rec = f.do(t, http.MethodGet, "/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestTokenExchangeIncrementsCounters(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{AutoScan: true, StepDelay: 10 * time.Millisecond}, nil)
	f.connect(t, "alice")

	rec := f.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	exposition := rec.Body.String()
	for _, want := range []string{
		"chatmesh_exchange_keys_consumed_total 1",
		"chatmesh_credentials_minted_total 1",
	} {
		if !strings.Contains(exposition, want) {
			t.Errorf("metrics exposition missing %q", want)
		}
	}
}

func TestRequestIDPropagatesToResponse(t *testing.T) {
	f := newGatewayFixture(t, sim.Options{}, nil)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if got := rec.Header().Get("X-Request-ID"); !strings.HasPrefix(got, "req-") {
		t.Errorf("X-Request-ID = %q, want req- prefix", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-from-caller")
	echo := httptest.NewRecorder()
	f.router.ServeHTTP(echo, req)
	if got := echo.Header().Get("X-Request-ID"); got != "req-from-caller" {
		t.Errorf("X-Request-ID = %q, want caller's id echoed", got)
	}
}
