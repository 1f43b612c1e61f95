package summary

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"printcast/internal/moonraker"
)

func phaseLabel(phase moonraker.Phase) string {
	switch phase {
	case moonraker.PhaseIdle:
		return "Idle"
	case moonraker.PhasePrinting:
		return "Printing"
	case moonraker.PhasePaused:
		return "Paused"
	case moonraker.PhaseComplete:
		return "Print complete"
	case moonraker.PhaseError:
		return "Error"
	default:
		return "Status unknown"
	}
}

// percent renders a fraction as a whole percentage in [0,100].
func percent(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(math.Round(fraction * 100))
}

func formatTemp(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// formatDuration renders durations as "1h05m" or "43m".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMinutes := int(d.Round(time.Minute) / time.Minute)
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// truncate caps s at max runes, replacing the tail with an ellipsis when it
// does not fit. Cutting on rune boundaries keeps multi-byte characters whole.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
