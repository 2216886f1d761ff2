// Package ui implements the watch terminal interface using bubbletea's Elm architecture.
//
// The TUI is a read-only broadcast listener with two views:
//  1. [NowPlayingView] : current track, artists, album, play state and a remaining-time countdown
//  2. [HistoryView] : the most recent events received, newest first
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Broadcasts flow in from a [Source] one message per command, so a slow terminal never holds the websocket reader.
//
// Key bindings (tab, ?, q) are displayed via charmbracelet/bubbles/help.
package ui
