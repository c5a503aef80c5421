package signaling

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestServerRejectsWrongPIN(t *testing.T) {
	srv := newServer("1234")
	port, err := srv.start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer srv.close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := connect(ctx, fmt.Sprintf("ws://127.0.0.1:%d/ws?pin=0000", port)); err == nil {
		t.Fatal("connection with wrong PIN accepted")
	}

	conn, err := connect(ctx, fmt.Sprintf("ws://127.0.0.1:%d/ws?pin=1234", port))
	if err != nil {
		t.Fatalf("connection with correct PIN failed: %v", err)
	}
	defer conn.Close()

	accepted, err := srv.waitForClient(ctx)
	if err != nil {
		t.Fatalf("waitForClient failed: %v", err)
	}
	accepted.Close()
}

func TestWaitForClientCancelled(t *testing.T) {
	srv := newServer("1234")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := srv.waitForClient(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestGeneratePIN(t *testing.T) {
	pin := GeneratePIN(PINLength)
	if len(pin) != PINLength {
		t.Fatalf("len(%q) = %d", pin, len(pin))
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit in PIN %q", pin)
		}
	}
}

func TestWithPIN(t *testing.T) {
	testCases := []struct {
		raw, pin, want string
		wantErr        bool
	}{
		{"ws://host:8080/ws", "4321", "ws://host:8080/ws?pin=4321", false},
		{"wss://host/ws?pin=1111", "4321", "wss://host/ws?pin=1111", false},
		{"ws://host/ws", "", "ws://host/ws", false},
		{"not a url", "1", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := withPIN(tc.raw, tc.pin)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Errorf("withPIN = %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}
