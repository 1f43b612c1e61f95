// Package moonraker polls a Klipper printer's Moonraker HTTP API and
// normalizes the response into immutable status snapshots. One snapshot is
// produced per fetch and never cached across worker ticks.
package moonraker
