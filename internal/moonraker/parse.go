package moonraker

import (
	"path"
	"strings"
	"time"
)

// statusPayload mirrors the Moonraker result.status object. Every section is
// optional; Klipper omits objects that are not configured on the printer.
type statusPayload struct {
	PrintStats *struct {
		State         string  `json:"state"`
		Filename      string  `json:"filename"`
		Message       string  `json:"message"`
		PrintDuration float64 `json:"print_duration"`
		Info          *struct {
			CurrentLayer *int `json:"current_layer"`
			TotalLayer   *int `json:"total_layer"`
		} `json:"info"`
	} `json:"print_stats"`
	VirtualSDCard *struct {
		FilePath   string `json:"file_path"`
		Layer      *int   `json:"layer"`
		LayerCount *int   `json:"layer_count"`
	} `json:"virtual_sdcard"`
	DisplayStatus *struct {
		Progress *float64 `json:"progress"`
	} `json:"display_status"`
	Extruder  *heaterPayload `json:"extruder"`
	HeaterBed *heaterPayload `json:"heater_bed"`
	GcodeMove *struct {
		SpeedFactor *float64 `json:"speed_factor"`
	} `json:"gcode_move"`
	Toolhead *struct {
		Position []float64 `json:"position"`
	} `json:"toolhead"`
	HotendFan *struct {
		Speed *float64 `json:"speed"`
	} `json:"heater_fan hotend_fan"`
	Fan0    *pinPayload `json:"output_pin fan0"`
	Fan1    *pinPayload `json:"output_pin fan1"`
	Fan2    *pinPayload `json:"output_pin fan2"`
	MCUTemp *struct {
		Temperature *float64 `json:"temperature"`
	} `json:"temperature_sensor mcu_temp"`
	ChamberTemp *struct {
		Temperature *float64 `json:"temperature"`
	} `json:"temperature_sensor chamber_temp"`
}

type heaterPayload struct {
	Temperature *float64 `json:"temperature"`
	Target      *float64 `json:"target"`
}

type pinPayload struct {
	Value *float64 `json:"value"`
}

func (p *statusPayload) snapshot() Snapshot {
	snap := Snapshot{Phase: PhaseUnknown}

	if p.PrintStats != nil {
		snap.Phase = phaseFromState(p.PrintStats.State)
		if snap.Phase == PhaseError {
			snap.ErrorMessage = strings.TrimSpace(p.PrintStats.Message)
		}
		if p.PrintStats.PrintDuration > 0 {
			snap.Elapsed = time.Duration(p.PrintStats.PrintDuration * float64(time.Second))
		}
		snap.Filename = strings.TrimSpace(p.PrintStats.Filename)
		if p.PrintStats.Info != nil {
			snap.Layer = p.PrintStats.Info.CurrentLayer
			snap.TotalLayers = p.PrintStats.Info.TotalLayer
		}
	}

	if p.VirtualSDCard != nil {
		if filePath := strings.TrimSpace(p.VirtualSDCard.FilePath); filePath != "" {
			snap.Filename = path.Base(filePath)
		}
		if snap.Layer == nil {
			snap.Layer = p.VirtualSDCard.Layer
		}
		if snap.TotalLayers == nil {
			snap.TotalLayers = p.VirtualSDCard.LayerCount
		}
	}

	if p.DisplayStatus != nil && p.DisplayStatus.Progress != nil {
		progress := clampFraction(*p.DisplayStatus.Progress)
		snap.Progress = &progress
		if progress > 0 && snap.Elapsed > 0 {
			total := time.Duration(float64(snap.Elapsed) / progress)
			remaining := total - snap.Elapsed
			if remaining < 0 {
				remaining = 0
			}
			snap.Remaining = &remaining
		}
	}

	snap.Hotend = p.Extruder.heater()
	snap.Bed = p.HeaterBed.heater()

	if p.GcodeMove != nil {
		snap.SpeedFactor = p.GcodeMove.SpeedFactor
	}

	if p.Toolhead != nil && len(p.Toolhead.Position) >= 3 {
		pos := Position{
			X: p.Toolhead.Position[0],
			Y: p.Toolhead.Position[1],
			Z: p.Toolhead.Position[2],
		}
		snap.ToolheadPos = &pos
	}

	if p.HotendFan != nil && p.HotendFan.Speed != nil {
		on := *p.HotendFan.Speed > 0
		snap.HotendFanOn = &on
	}
	for i, pin := range []*pinPayload{p.Fan0, p.Fan1, p.Fan2} {
		if pin == nil || pin.Value == nil {
			continue
		}
		snap.CaseFans = append(snap.CaseFans, Fan{
			Name:    "fan" + string(rune('0'+i)),
			Percent: int(clampFraction(*pin.Value) * 100),
		})
	}

	if p.MCUTemp != nil {
		snap.MCUTemp = p.MCUTemp.Temperature
	}
	if p.ChamberTemp != nil {
		snap.ChamberTemp = p.ChamberTemp.Temperature
	}

	return snap
}

func (h *heaterPayload) heater() *Heater {
	if h == nil || h.Temperature == nil {
		return nil
	}
	heater := Heater{Current: *h.Temperature}
	if h.Target != nil {
		heater.Target = *h.Target
	}
	return &heater
}
