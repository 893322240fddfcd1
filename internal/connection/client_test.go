package connection

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// echoHandler returns every text frame to the sender unchanged.
func echoHandler(conn *websocket.Conn) {
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, msg); err != nil {
			return
		}
	}
}

func testClientConfig(url string) ClientConfig {
	cfg := DefaultClientConfig()
	cfg.URL = url
	return cfg
}

// waitForState polls until the client reaches the wanted state.
func waitForState(t *testing.T, c Client, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %q, want %q", c.State(), want)
}

func TestClient_ConnectLifecycle(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)

	if client.State() != StateDisconnected {
		t.Fatalf("initial state = %q, want disconnected", client.State())
	}

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, client, StateConnected)

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("state after Close = %q, want disconnected", client.State())
	}
}

func TestClient_ConnectIdempotent(t *testing.T) {
	var upgrades atomic.Int32

	server := mockWSServer(t, func(conn *websocket.Conn) {
		upgrades.Add(1)
		echoHandler(conn)
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	ctx := context.Background()

	// Back-to-back Connects while Connecting must dial exactly once.
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("second Connect failed: %v", err)
	}
	waitForState(t, client, StateConnected)

	// And another while Connected.
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("third Connect failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if n := upgrades.Load(); n != 1 {
		t.Errorf("server saw %d upgrades, want 1", n)
	}
	client.Close()
}

func TestClient_EchoRoundTrip(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()
	waitForState(t, client, StateConnected)

	payload := []byte(`{"symbol":"AAPL","price":151.25,"timestamp":"2025-03-14T09:30:00Z"}`)
	if err := client.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-client.Messages():
		if string(msg.Data) != string(payload) {
			t.Errorf("echoed %q, want %q", msg.Data, payload)
		}
		if msg.ReceivedAt.IsZero() {
			t.Error("ReceivedAt not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for echoed message")
	}
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	client := NewClient(testClientConfig("ws://127.0.0.1:1"), nil)

	if err := client.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, client, StateConnected)

	if err := client.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %q, want disconnected", client.State())
	}

	// Close on a never-connected client is also safe.
	fresh := NewClient(testClientConfig(wsURL(server)), nil)
	if err := fresh.Close(); err != nil {
		t.Errorf("Close on fresh client failed: %v", err)
	}
}

func TestClient_DialFailureRecordsError(t *testing.T) {
	cfg := testClientConfig("ws://127.0.0.1:1")
	cfg.HandshakeTimeout = 500 * time.Millisecond

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case <-client.Errors():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for dial error")
	}

	waitForState(t, client, StateDisconnected)
	if client.LastError() == nil {
		t.Error("LastError is nil after dial failure")
	}
}

func TestClient_ReadFailureDisconnects(t *testing.T) {
	disconnect := make(chan struct{})

	server := mockWSServer(t, func(conn *websocket.Conn) {
		<-disconnect
		// Abrupt close, no close handshake.
		conn.Close()
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, client, StateConnected)

	close(disconnect)

	select {
	case <-client.Errors():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for receive-loop error")
	}

	waitForState(t, client, StateDisconnected)
	if client.LastError() == nil {
		t.Error("LastError is nil after read failure")
	}

	// The loop does not restart itself; a fresh Connect does.
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	waitForState(t, client, StateConnected)
	client.Close()
}

func TestClient_SendFailureKeepsConnection(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	cfg := testClientConfig(wsURL(server))
	// The write deadline is already expired when the write starts.
	cfg.WriteTimeout = -time.Millisecond

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()
	waitForState(t, client, StateConnected)

	if err := client.Send([]byte(`{"symbol":"AAPL","price":151.25}`)); err == nil {
		t.Fatal("Send succeeded with an expired write deadline")
	}

	// A send failure is recorded but does not tear the connection down.
	if client.State() != StateConnected {
		t.Errorf("state after send failure = %q, want connected", client.State())
	}
	if client.LastError() == nil {
		t.Error("LastError is nil after send failure")
	}
}

func TestClient_NoStaleErrorAfterReconnect(t *testing.T) {
	// Reserve an address, then close the listener so the first dial fails.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := testClientConfig("ws://" + addr)
	cfg.HandshakeTimeout = 500 * time.Millisecond

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	// Leave the dial error undrained on purpose.
	waitForState(t, client, StateDisconnected)
	if client.LastError() == nil {
		t.Fatal("LastError is nil after dial failure")
	}

	// Bring the endpoint up on the same address and reconnect.
	ln2, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("rebind %s failed: %v", addr, err)
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		echoHandler(conn)
	})}
	go server.Serve(ln2)
	defer server.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	defer client.Close()
	waitForState(t, client, StateConnected)

	// The failed attempt's buffered error must not surface on the new session.
	select {
	case err := <-client.Errors():
		t.Fatalf("stale error delivered on the new session: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClient_StateChanges(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	want := []State{StateConnecting, StateConnected}
	for _, ws := range want {
		select {
		case st := <-client.StateChanges():
			if st != ws {
				t.Fatalf("state transition = %q, want %q", st, ws)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %q transition", ws)
		}
	}
}
