package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// An alternate duplex transport for StreamEvent/InstallProgress
// next to the NDJSON HTTP framing (§11 domain stack), for clients that
// want a persistent connection and the ability to send a cancel frame
// back without opening a second request. Grounded on the pack's
// gorilla/websocket upgrade-and-pump idiom (ping/pong keepalive, a
// lenient CheckOrigin left to the caller's reverse proxy).
const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

type wsInbound struct {
	Type    string `json:"type"`
	TaskID  string `json:"taskId,omitempty"`
	ModelID string `json:"modelId,omitempty"`
	Version string `json:"version,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
}

// handleStreamWS accepts a websocket connection and dispatches a single
// "generate" or "install" request frame, then pumps the resulting event
// stream back to the client. A "cancel" frame on the same connection
// cancels an in-flight generate task cooperatively; it has no effect on an
// install.
func handleStreamWS(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := streamUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		var first wsInbound
		if err := conn.ReadJSON(&first); err != nil {
			return
		}

		ping := time.NewTicker(wsPingEvery)
		defer ping.Stop()
		go func() {
			for range ping.C {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}()

		// A second goroutine drains inbound frames looking for a cancel
		// signal; the generate/install pump below owns writes.
		var taskID string
		go func() {
			for {
				var in wsInbound
				if err := conn.ReadJSON(&in); err != nil {
					return
				}
				if strings.EqualFold(in.Type, "cancel") && taskID != "" {
					svc.CancelTask(taskID)
				}
			}
		}()

		switch strings.ToLower(first.Type) {
		case "install":
			progress, cerr := svc.Install(ctx, first.ModelID, first.Version)
			if cerr != nil {
				_ = conn.WriteJSON(map[string]any{"error": cerr.Error()})
				return
			}
			for ev := range progress {
				if writeWS(conn, ev) != nil {
					return
				}
				if ev.Terminal() {
					return
				}
			}
		case "generate":
			id, events, cerr := svc.Generate(ctx, GenerateRequest{ModelID: first.ModelID, Prompt: first.Prompt})
			if cerr != nil {
				_ = conn.WriteJSON(map[string]any{"error": cerr.Error()})
				return
			}
			taskID = id
			for ev := range events {
				if writeWS(conn, ev) != nil {
					return
				}
			}
		default:
			_ = conn.WriteJSON(map[string]any{"error": "unknown frame type: " + first.Type})
		}
	}
}

func writeWS(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
