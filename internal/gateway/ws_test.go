package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"memorymate/internal/provider"
	"memorymate/internal/provider/providertest"
)

func dialChat(t *testing.T, g *Gateway) (*websocket.Conn, context.Context) {
	t.Helper()

	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	return conn, ctx
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) Frame {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return frame
}

func sendMessage(t *testing.T, ctx context.Context, conn *websocket.Conn, text string) {
	t.Helper()

	data, _ := json.Marshal(Frame{Type: MsgMessage, Text: text})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestChatStreamsDeltas(t *testing.T) {
	mock := &providertest.MockProvider{
		StreamFunc: providertest.StreamText("Hel", "lo", "!"),
	}
	g := newTestGateway(t, mock, nil)

	if err := g.ctrl.Login(context.Background(), "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}

	conn, ctx := dialChat(t, g)
	sendMessage(t, ctx, conn, "hi")

	var streamed strings.Builder
	for {
		frame := readFrame(t, ctx, conn)
		switch frame.Type {
		case MsgDelta:
			streamed.WriteString(frame.Content)
		case MsgDone:
			if frame.Content != "Hello!" {
				t.Errorf("done content = %q, want Hello!", frame.Content)
			}
			if streamed.String() != "Hello!" {
				t.Errorf("streamed %q, want Hello!", streamed.String())
			}
			return
		default:
			t.Fatalf("unexpected frame %+v", frame)
		}
	}
}

func TestChatWithoutSession(t *testing.T) {
	g := newTestGateway(t, nil, nil)

	conn, ctx := dialChat(t, g)
	sendMessage(t, ctx, conn, "hi")

	frame := readFrame(t, ctx, conn)
	if frame.Type != MsgError {
		t.Errorf("frame = %+v, want an error frame", frame)
	}
}

func TestChatPartialResponse(t *testing.T) {
	boom := errors.New("connection reset")
	mock := &providertest.MockProvider{
		StreamFunc: func(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
			ch := make(chan provider.StreamChunk, 2)
			ch <- provider.StreamChunk{Content: "partial"}
			ch <- provider.StreamChunk{Err: boom}
			close(ch)
			return ch, nil
		},
	}
	g := newTestGateway(t, mock, nil)

	if err := g.ctrl.Login(context.Background(), "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}

	conn, ctx := dialChat(t, g)
	sendMessage(t, ctx, conn, "hi")

	for {
		frame := readFrame(t, ctx, conn)
		if frame.Type == MsgDelta {
			continue
		}
		if frame.Type != MsgDone {
			t.Fatalf("frame = %+v, want done with partial content", frame)
		}
		if frame.Content != "partial" {
			t.Errorf("content = %q, want partial", frame.Content)
		}
		if frame.Message == "" {
			t.Error("expected the fault to be reported alongside the partial text")
		}
		return
	}
}
