// Package presence publishes rich presence activities to the local chat client.
//
// [RPC] speaks the client's IPC protocol through rich-go. The connection is opened
// lazily on the first [RPC.SetActivity] and dropped by [RPC.Clear], which is the only
// way the protocol library offers to remove an activity. The next update reconnects.
//
// [Activity] is the transport-neutral payload built by the reconciliation engine.
package presence
