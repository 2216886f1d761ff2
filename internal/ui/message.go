package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dzrpc/internal/broadcast"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBroadcast MsgKind = iota
	MsgDisconnected
	MsgClock
)

// broadcastMsg is the constructor for [MsgBroadcast]
func broadcastMsg(m broadcast.Message) Msg {
	return Msg{kind: MsgBroadcast, data: m}
}

// disconnectedMsg is the constructor for [MsgDisconnected]
func disconnectedMsg() Msg {
	return Msg{kind: MsgDisconnected}
}

// clockMsg is the constructor for [MsgClock]
func clockMsg(t time.Time) Msg {
	return Msg{kind: MsgClock, data: t}
}
