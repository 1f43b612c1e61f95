package moonraker

import "time"

// Phase is the coarse-grained machine state classification derived from
// Klipper's print_stats state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePrinting Phase = "printing"
	PhasePaused   Phase = "paused"
	PhaseError    Phase = "error"
	PhaseComplete Phase = "complete"
	PhaseUnknown  Phase = "unknown"
)

// Heater holds a current/target temperature pair in degrees Celsius.
type Heater struct {
	Current float64
	Target  float64
}

// Heating reports whether the heater is still below its target.
// A one degree band around the target reads as holding steady.
func (h Heater) Heating() bool { return h.Current < h.Target-1 }

// Cooling reports whether the heater is above its target.
func (h Heater) Cooling() bool { return h.Current > h.Target+1 }

// Fan describes one case fan with its drive percentage.
type Fan struct {
	Name    string
	Percent int
}

// Position is the toolhead location in millimeters.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Snapshot is one immutable view of printer telemetry at a point in time.
// Optional fields are pointers; nil means the printer did not report them,
// which is distinct from a zero value.
type Snapshot struct {
	Phase        Phase
	ErrorMessage string

	// Progress is the print completion fraction clamped to [0,1]. Nil when
	// the printer reported no progress (not the same as 0%).
	Progress *float64

	Elapsed   time.Duration
	Remaining *time.Duration

	Filename    string
	Layer       *int
	TotalLayers *int

	Hotend *Heater
	Bed    *Heater

	MCUTemp     *float64
	ChamberTemp *float64

	HotendFanOn *bool
	CaseFans    []Fan

	ToolheadPos *Position
	SpeedFactor *float64
}

// Active reports whether the snapshot describes a print in flight.
func (s Snapshot) Active() bool {
	return s.Phase == PhasePrinting || s.Phase == PhasePaused
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func phaseFromState(state string) Phase {
	switch state {
	case "standby":
		return PhaseIdle
	case "printing":
		return PhasePrinting
	case "paused":
		return PhasePaused
	case "error":
		return PhaseError
	case "complete", "cancelled":
		return PhaseComplete
	default:
		return PhaseUnknown
	}
}
