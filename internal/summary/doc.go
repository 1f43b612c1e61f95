// Package summary renders status snapshots into the chat message and stream
// title published to Twitch. It performs no I/O.
package summary
