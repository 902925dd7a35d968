package transport

import (
	"context"
	"sync"
	"testing"
	"time"
)

func startTestServer(t *testing.T, config ServerConfig) *Server {
	t.Helper()
	config.Address = "127.0.0.1:0"
	srv, err := NewServer(config)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func TestServerEcho(t *testing.T) {
	srv := startTestServer(t, ServerConfig{
		OnMessage: func(conn *ServerConn, msg []byte) {
			conn.Send(msg)
		},
	})

	client := NewClient(ClientConfig{})
	conn, err := client.Connect(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	payload := []byte("ping")
	if err := conn.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := conn.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if string(got) != "ping" {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestClientRoundTrip(t *testing.T) {
	srv := startTestServer(t, ServerConfig{
		OnMessage: func(conn *ServerConn, msg []byte) {
			conn.Send(append([]byte("re:"), msg...))
		},
	})

	client := NewClient(ClientConfig{})
	conn, err := client.Connect(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				resp, err := conn.RoundTrip([]byte("msg"), 2*time.Second)
				if err != nil {
					t.Errorf("RoundTrip failed: %v", err)
					return
				}
				if string(resp) != "re:msg" {
					t.Errorf("got %q", resp)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestServerConnectDisconnectCallbacks(t *testing.T) {
	var mu sync.Mutex
	connected := make(chan struct{})
	disconnected := make(chan struct{})
	var connID string

	srv := startTestServer(t, ServerConfig{
		OnConnect: func(conn *ServerConn) {
			mu.Lock()
			connID = conn.ConnID()
			mu.Unlock()
			close(connected)
		},
		OnDisconnect: func(conn *ServerConn) {
			close(disconnected)
		},
	})

	client := NewClient(ClientConfig{})
	conn, err := client.Connect(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnConnect")
	}

	mu.Lock()
	if connID == "" {
		t.Error("connection id not assigned")
	}
	mu.Unlock()

	if got := srv.ConnectionCount(); got != 1 {
		t.Errorf("ConnectionCount = %d, want 1", got)
	}

	conn.Close()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnDisconnect")
	}
}

func TestServerStopClosesConnections(t *testing.T) {
	srv := startTestServer(t, ServerConfig{})

	client := NewClient(ClientConfig{})
	conn, err := client.Connect(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// The closed server must tear the connection down; reads fail.
	if _, err := conn.Receive(2 * time.Second); err == nil {
		t.Error("expected read error after server stop")
	}

	// Stop is idempotent.
	if err := srv.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestServerDoubleStart(t *testing.T) {
	srv := startTestServer(t, ServerConfig{})
	if err := srv.Start(context.Background()); err == nil {
		t.Error("expected error starting a running server")
	}
}

func TestClientSendAfterClose(t *testing.T) {
	srv := startTestServer(t, ServerConfig{})

	client := NewClient(ClientConfig{})
	conn, err := client.Connect(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	conn.Close()

	if err := conn.Send([]byte("late")); err != ErrConnectionClosed {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
	if _, err := conn.Receive(time.Second); err != ErrConnectionClosed {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
