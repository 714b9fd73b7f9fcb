package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"vaporscope-backend/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Relay bridges the page UI and the backend: one fetch_summary message in,
// exactly one response frame out. It resolves the installation id before
// forwarding so the backend can meter the request.
type Relay struct {
	backendURL string
	identity   *identity.Provider
	httpClient *http.Client
	upgrader   websocket.Upgrader
}

func New(backendURL string, provider *identity.Provider, timeout time.Duration) *Relay {
	return &Relay{
		backendURL: backendURL,
		identity:   provider,
		httpClient: &http.Client{Timeout: timeout},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // page UI connects from the product page origin
			},
		},
	}
}

type Message struct {
	Action  string   `json:"action"`
	AppID   string   `json:"appId"`
	Reviews []string `json:"reviews"`
}

// Response mirrors what the page script expects back: the success flag and
// status let it tell a daily-limit rejection apart from a generic failure.
type Response struct {
	Success bool            `json:"success"`
	Status  int             `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	UserID  string          `json:"userId,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type backendRequest struct {
	AppID   string   `json:"appId"`
	Reviews []string `json:"reviews"`
	UserID  string   `json:"userId,omitempty"`
}

// Fetch forwards one review batch to the backend and returns whatever it
// said, verbatim. An unreachable backend yields a generic failure response
// instead of an error so the caller always gets exactly one reply.
func (r *Relay) Fetch(ctx context.Context, appID string, reviews []string) Response {
	userID, err := r.identity.GetOrCreate()
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}

	body, err := json.Marshal(backendRequest{AppID: appID, Reviews: reviews, UserID: userID})
	if err != nil {
		return Response{Success: false, Error: err.Error(), UserID: userID}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.backendURL, bytes.NewReader(body))
	if err != nil {
		return Response{Success: false, Error: err.Error(), UserID: userID}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Response{Success: false, Error: err.Error(), UserID: userID}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Success: false, Error: err.Error(), UserID: userID}
	}

	out := Response{
		Success: resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:  resp.StatusCode,
		UserID:  userID,
	}
	// The 403 path answers with plain text, not JSON.
	if json.Valid(data) {
		out.Data = data
	} else {
		out.Error = string(data)
	}
	return out
}

// HandleConnections upgrades the UI connection and serves its messages.
func (r *Relay) HandleConnections(c *gin.Context) {
	ws, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		switch msg.Action {
		case "fetch_summary":
			resp := r.Fetch(c.Request.Context(), msg.AppID, msg.Reviews)
			if err := ws.WriteJSON(resp); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		default:
			log.Printf("Unknown relay action: %s", msg.Action)
			ws.WriteJSON(Response{Success: false, Error: "Unknown action"})
		}
	}
}
