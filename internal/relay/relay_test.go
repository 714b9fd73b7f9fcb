package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vaporscope-backend/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestRelay(t *testing.T, backendURL string) *Relay {
	t.Helper()
	store := identity.NewFileStore(filepath.Join(t.TempDir(), "identity.json"))
	return New(backendURL, identity.NewProvider(store), 2*time.Second)
}

func TestRelayFetchSuccess(t *testing.T) {
	var gotBody []byte
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"verdict":"Buy","one_liner":"x","performance_score":7,"pros":["a"],"cons":["b"]}`)
	}))
	defer backend.Close()

	r := newTestRelay(t, backend.URL)
	resp := r.Fetch(context.Background(), "42", []string{"Great game"})

	if !resp.Success || resp.Status != http.StatusOK {
		t.Fatalf("Fetch = %+v, want success with status 200", resp)
	}
	if resp.UserID == "" {
		t.Fatal("response must carry the installation id")
	}
	if !strings.Contains(string(gotBody), resp.UserID) {
		t.Fatalf("backend request missing installation id: %s", gotBody)
	}

	var payload struct {
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("data decode error = %v", err)
	}
	if payload.Verdict != "Buy" {
		t.Fatalf("payload = %+v", payload)
	}

	// The installation id is stable across fetches.
	again := r.Fetch(context.Background(), "42", []string{"Great game"})
	if again.UserID != resp.UserID {
		t.Fatalf("installation id changed: %q vs %q", resp.UserID, again.UserID)
	}
}

func TestRelayFetchRateLimited(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"Daily demo limit reached. Come back tomorrow!","isLimit":true}`)
	}))
	defer backend.Close()

	r := newTestRelay(t, backend.URL)
	resp := r.Fetch(context.Background(), "42", []string{"r"})

	if resp.Success {
		t.Fatal("429 must not report success")
	}
	if resp.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.Status)
	}

	var payload struct {
		IsLimit bool `json:"isLimit"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("data decode error = %v", err)
	}
	if !payload.IsLimit {
		t.Fatal("limit flag must survive the relay")
	}
}

func TestRelayFetchForbidden(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "Forbidden")
	}))
	defer backend.Close()

	r := newTestRelay(t, backend.URL)
	resp := r.Fetch(context.Background(), "42", []string{"r"})

	if resp.Success || resp.Status != http.StatusForbidden {
		t.Fatalf("Fetch = %+v, want forbidden", resp)
	}
	if resp.Error != "Forbidden" {
		t.Fatalf("plain-text body should land in Error, got %+v", resp)
	}
}

func TestRelayWebSocketBridge(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"verdict":"Buy","one_liner":"x","performance_score":7,"pros":[],"cons":[]}`)
	}))
	defer backend.Close()

	bridge := newTestRelay(t, backend.URL)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", bridge.HandleConnections)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Action: "fetch_summary", AppID: "42", Reviews: []string{"Great game"}}); err != nil {
		t.Fatalf("WriteJSON error = %v", err)
	}

	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}
	if !resp.Success || resp.Status != http.StatusOK || resp.UserID == "" {
		t.Fatalf("bridge response = %+v", resp)
	}

	// Unknown actions get exactly one error frame, connection stays open.
	if err := conn.WriteJSON(Message{Action: "bogus"}); err != nil {
		t.Fatalf("WriteJSON error = %v", err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON error = %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("unknown action response = %+v", resp)
	}
}

func TestRelayFetchBackendUnreachable(t *testing.T) {
	r := newTestRelay(t, "http://127.0.0.1:1")
	resp := r.Fetch(context.Background(), "42", []string{"r"})

	if resp.Success {
		t.Fatal("unreachable backend must not report success")
	}
	if resp.Error == "" {
		t.Fatal("unreachable backend must yield an error message")
	}
}
