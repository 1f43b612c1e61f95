// Package workflow runs the telemetry publishing loop. Two workers share one
// pipeline shape: fetch a telemetry snapshot, summarize it, and publish the
// result. The chat worker posts a status message on a short cadence and the
// title worker updates the channel title on a longer one. Workers fail
// independently; a failed tick is logged and abandoned, never retried.
package workflow
