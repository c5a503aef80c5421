package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/pterm/pterm"

	"github.com/1ureka/rlink/internal/link/bridge"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

// PINLength is the number of digits in a generated PIN.
const PINLength = 4

// helloTimeout bounds the wait for the remote address once the channel is open.
const helloTimeout = 5 * time.Second

// Options configure either side of the exchange.
type Options struct {
	Local protocol.PeerAddress // this node's address on the bridge
	STUN  []string             // nil uses bridge.DefaultSTUN
	PIN   string               // host: empty generates one; client: appended to the URL if absent
}

// Session is an established bridge link.
type Session struct {
	Transport *bridge.Transport
	Remote    protocol.PeerAddress
}

// EstablishAsHost executes the host-side signaling flow:
//  1. Start a WS server on wsAddr and print its port and PIN
//  2. Wait for the client to connect
//  3. Exchange addresses, send the offer, trickle ICE
//  4. Return once the DataChannel is open; the WS server is closed on return
func EstablishAsHost(ctx context.Context, wsAddr string, opts Options) (*Session, error) {
	pin := opts.PIN
	if pin == "" {
		pin = GeneratePIN(PINLength)
	}

	srv := newServer(pin)
	wsPort, err := srv.start(wsAddr)
	if err != nil {
		return nil, err
	}
	defer srv.close()

	pterm.DefaultBox.WithTitle("WebSocket Signaling Server").Println(
		fmt.Sprintf("Port : %d\nPIN  : %s\nNode : %s", wsPort, pin, opts.Local))
	util.LogInfo("waiting for client...")

	wsConn, err := srv.waitForClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for client: %w", err)
	}
	defer wsConn.Close()
	util.LogInfo("client connected")

	return exchange(ctx, wsConn, opts, true)
}

// EstablishAsClient executes the client-side signaling flow against the
// host's WS URL and returns once the DataChannel is open.
func EstablishAsClient(ctx context.Context, wsURL string, opts Options) (*Session, error) {
	target, err := withPIN(wsURL, opts.PIN)
	if err != nil {
		return nil, err
	}

	util.LogInfo("connecting to host...")
	wsConn, err := connect(ctx, target)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()
	util.LogDebug("WS connected: %s", wsURL)

	return exchange(ctx, wsConn, opts, false)
}

func exchange(ctx context.Context, wsConn *websocket.Conn, opts Options, offerer bool) (*Session, error) {
	stun := opts.STUN
	if stun == nil {
		stun = bridge.DefaultSTUN
	}
	tr, err := bridge.NewTransport(ctx, opts.Local, stun)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge transport: %w", err)
	}

	s := &sender{tr: tr, conn: wsConn}
	r := &receiver{tr: tr, conn: wsConn, sender: s, hello: make(chan protocol.PeerAddress, 1)}

	tr.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c != nil {
			data, _ := json.Marshal(c.ToJSON())
			// best effort: a lost candidate only narrows the ICE search
			s.sendCandidate(string(data))
		}
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.watch() // exits when wsConn is closed by the caller
	}()

	if err := s.sendHello(opts.Local); err != nil {
		tr.Close()
		return nil, fmt.Errorf("failed to send hello: %w", err)
	}
	if offerer {
		if err := s.sendOffer(); err != nil {
			tr.Close()
			return nil, fmt.Errorf("failed to send offer: %w", err)
		}
	}

	var remote protocol.PeerAddress
	haveRemote := false
	for {
		select {
		case remote = <-r.hello:
			haveRemote = true
			continue

		case <-tr.Ready():

		case err := <-errCh:
			tr.Close()
			return nil, fmt.Errorf("signaling failed: %w", err)

		case <-ctx.Done():
			tr.Close()
			return nil, ctx.Err()
		}
		break
	}

	if !haveRemote {
		select {
		case remote = <-r.hello:
		case <-time.After(helloTimeout):
			tr.Close()
			return nil, errors.New("signaling failed: remote never sent its address")
		}
	}

	util.LogSuccess("bridge DataChannel established with %s", remote)
	return &Session{Transport: tr, Remote: remote}, nil
}

// withPIN appends pin as a query parameter unless the URL already has one.
func withPIN(raw, pin string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	if pin == "" {
		return u.String(), nil
	}
	q := u.Query()
	if q.Get("pin") == "" {
		q.Set("pin", pin)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
