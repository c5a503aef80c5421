package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

// normalizeWSURL validates and normalizes a raw WebSocket URL string. The
// query is kept so a pasted ?pin= survives.
func normalizeWSURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	scheme := "wss"
	if u.Scheme == "ws" || u.Scheme == "wss" {
		scheme = u.Scheme
	}
	out := fmt.Sprintf("%s://%s/ws", scheme, u.Host)
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out, nil
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("WebSocket URL (e.g. ws://192.168.1.20:5000/ws)").
			Show()

		wsURL, err := normalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}

type action int

const (
	actionSend action = iota
	actionCancel
	actionQuit
	actionNone
)

var errUsage = errors.New("usage: /cmd <int16> | /data <hex> | /cancel | /quit | <text>")

// parseInput turns one line typed at the chat prompt into an action. Plain
// lines become TEXT frames.
func parseInput(line string) (action, *protocol.Frame, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return actionNone, nil, nil
	}
	if !strings.HasPrefix(line, "/") {
		return actionSend, protocol.NewText(line), nil
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "/quit", "/exit":
		return actionQuit, nil, nil
	case "/cancel":
		return actionCancel, nil, nil
	case "/cmd":
		v, err := strconv.ParseInt(arg, 0, 16)
		if err != nil {
			return actionNone, nil, fmt.Errorf("command must be a 16-bit integer: %q", arg)
		}
		return actionSend, protocol.NewCommand(int16(v)), nil
	case "/data":
		b, err := hex.DecodeString(strings.ReplaceAll(arg, " ", ""))
		if err != nil || len(b) == 0 {
			return actionNone, nil, fmt.Errorf("data must be non-empty hex: %q", arg)
		}
		return actionSend, protocol.NewData(b), nil
	default:
		return actionNone, nil, errUsage
	}
}
