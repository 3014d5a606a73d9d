package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// Frame types exchanged on /ws/chat.
const (
	MsgMessage = "message" // client -> server: one user turn
	MsgDelta   = "delta"   // server -> client: one response fragment
	MsgDone    = "done"    // server -> client: turn finished
	MsgError   = "error"   // server -> client: turn failed
)

// Frame is the JSON envelope for chat WebSocket messages.
type Frame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// handleChat runs the chat WebSocket lifecycle: read a user turn, stream
// the response back as delta frames, finish with done or error, repeat.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	var acceptOpts *websocket.AcceptOptions
	if g.allowedOrigin != "" {
		acceptOpts = &websocket.AcceptOptions{OriginPatterns: []string{g.allowedOrigin}}
	}

	conn, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		g.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	ctx := r.Context()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			g.logger.Warn("invalid chat frame", "error", err)
			g.sendFrame(ctx, conn, Frame{Type: MsgError, Message: "invalid frame"})
			continue
		}

		if frame.Type != MsgMessage {
			g.logger.Warn("unexpected chat frame type", "type", frame.Type)
			continue
		}

		g.runTurn(ctx, conn, frame.Text)
	}
}

// runTurn drives one chat turn while holding the controller lock, relaying
// each streamed fragment to the client as it arrives.
func (g *Gateway) runTurn(ctx context.Context, conn *websocket.Conn, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()

	turn, err := g.ctrl.Submit(ctx, text, func(delta string) {
		g.sendFrame(ctx, conn, Frame{Type: MsgDelta, Content: delta})
	})
	if err != nil {
		g.metrics.RecordError()
		if turn.Content == "" {
			g.sendFrame(ctx, conn, Frame{Type: MsgError, Message: err.Error()})
			return
		}
		// Partial response: report what survived together with the fault.
		g.sendFrame(ctx, conn, Frame{Type: MsgDone, Content: turn.Content, Message: err.Error()})
		return
	}

	g.metrics.RecordTurn(time.Since(start))
	g.sendFrame(ctx, conn, Frame{Type: MsgDone, Content: turn.Content})
}

func (g *Gateway) sendFrame(ctx context.Context, conn *websocket.Conn, frame Frame) {
	data, _ := json.Marshal(frame)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		g.logger.Warn("chat frame write failed", "type", frame.Type, "error", err)
	}
}
