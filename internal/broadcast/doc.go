// Package broadcast is the local event channel for other listeners on this machine.
//
// [Hub] upgrades HTTP requests to websockets and fans every [Message] out to all
// attached listeners in parallel. Each write has its own deadline, and a failed
// write or a listener that stops answering pings is dropped. The most recent
// message is kept and replayed to listeners when they attach, so a late listener
// sees the current track without waiting for the next change.
//
// Messages use a fixed envelope:
//
//	{"id": "...", "type": "message", "event": "PLAYER_STATE_CHANGED", "data": {...}}
//
// [Dial] is the listener side, used by the terminal UI.
package broadcast
