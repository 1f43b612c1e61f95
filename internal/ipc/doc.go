// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
// The printcast CLI is the only intended client.
package ipc
