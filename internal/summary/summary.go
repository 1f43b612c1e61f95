package summary

import (
	"fmt"
	"strings"
	"time"

	"printcast/internal/moonraker"
)

// TitleLimit is the Twitch stream title length cap in characters.
const TitleLimit = 140

// Summarize turns one status snapshot into a multi-line chat message and a
// single-line stream title. It is pure: the timestamp is passed in rather than
// read, and identical inputs always produce identical outputs.
func Summarize(snap moonraker.Snapshot, now time.Time) (chat, title string) {
	return chatText(snap, now), titleText(snap)
}

func chatText(snap moonraker.Snapshot, now time.Time) string {
	var lines []string

	if snap.Phase == moonraker.PhaseError {
		lines = append(lines, "⚠️ Printer error: "+errorDetail(snap))
	}

	status := "🖨️ " + phaseLabel(snap.Phase)
	if snap.Filename != "" {
		status += " | 📁 " + snap.Filename
	}
	lines = append(lines, status)

	if progress := progressSegment(snap); progress != "" {
		lines = append(lines, progress)
	}

	if temps := tempSegment(snap); temps != "" {
		lines = append(lines, temps)
	}

	if sensors := sensorSegment(snap); sensors != "" {
		lines = append(lines, sensors)
	}

	if fans := fanSegment(snap); fans != "" {
		lines = append(lines, fans)
	}

	if motion := motionSegment(snap); motion != "" {
		lines = append(lines, motion)
	}

	lines = append(lines, "⏰ as of "+now.Format("15:04:05"))

	return strings.Join(lines, "\n")
}

// titleText builds the stream title inside TitleLimit. Fields are added in
// priority order (phase, progress, filename) and the lowest priority field is
// dropped first when space runs out.
func titleText(snap moonraker.Snapshot) string {
	if snap.Phase == moonraker.PhaseError {
		return truncate("⚠️ Printer error: "+errorDetail(snap), TitleLimit)
	}

	phase := "🖨️ " + phaseLabel(snap.Phase)
	progress := ""
	if snap.Progress != nil {
		progress = fmt.Sprintf("%d%% done", percent(*snap.Progress))
		if snap.Remaining != nil {
			progress += " | ⏰ " + formatDuration(*snap.Remaining) + " left"
		}
	}
	filename := ""
	if snap.Filename != "" {
		filename = "📁 " + snap.Filename
	}

	candidates := [][]string{
		{phase, progress, filename},
		{phase, progress},
		{phase},
	}
	for _, fields := range candidates {
		title := joinFields(fields)
		if len([]rune(title)) <= TitleLimit {
			return title
		}
	}
	return truncate(phase, TitleLimit)
}

func progressSegment(snap moonraker.Snapshot) string {
	var parts []string
	if snap.Progress != nil {
		parts = append(parts, fmt.Sprintf("📊 %d%%", percent(*snap.Progress)))
	}
	if snap.Elapsed > 0 {
		timing := "⏱️ " + formatDuration(snap.Elapsed) + " elapsed"
		if snap.Remaining != nil {
			timing += " / " + formatDuration(*snap.Remaining) + " left"
		}
		parts = append(parts, timing)
	}
	return strings.Join(parts, " | ")
}

func tempSegment(snap moonraker.Snapshot) string {
	var parts []string
	if snap.Hotend != nil {
		parts = append(parts, "🔥 Hotend "+heaterText(*snap.Hotend))
	}
	if snap.Bed != nil {
		parts = append(parts, "🛏️ Bed "+heaterText(*snap.Bed))
	}
	return strings.Join(parts, " | ")
}

func sensorSegment(snap moonraker.Snapshot) string {
	var parts []string
	if snap.MCUTemp != nil {
		parts = append(parts, "💻 MCU "+formatTemp(*snap.MCUTemp)+"°C")
	}
	if snap.ChamberTemp != nil {
		parts = append(parts, "🌡️ Chamber "+formatTemp(*snap.ChamberTemp)+"°C")
	}
	return strings.Join(parts, " | ")
}

func fanSegment(snap moonraker.Snapshot) string {
	var parts []string
	if snap.HotendFanOn != nil {
		state := "off"
		if *snap.HotendFanOn {
			state = "on"
		}
		parts = append(parts, "❄️ Hotend fan "+state)
	}
	if len(snap.CaseFans) > 0 {
		fans := make([]string, 0, len(snap.CaseFans))
		for _, fan := range snap.CaseFans {
			fans = append(fans, fmt.Sprintf("%s %d%%", fan.Name, fan.Percent))
		}
		parts = append(parts, "🆒 Case "+strings.Join(fans, ", "))
	}
	return strings.Join(parts, " | ")
}

func motionSegment(snap moonraker.Snapshot) string {
	var parts []string
	if snap.ToolheadPos != nil {
		parts = append(parts, fmt.Sprintf("📍 X%.0f Y%.0f Z%.2f", snap.ToolheadPos.X, snap.ToolheadPos.Y, snap.ToolheadPos.Z))
	}
	if snap.Layer != nil && snap.TotalLayers != nil && *snap.TotalLayers > 0 {
		parts = append(parts, fmt.Sprintf("🧱 Layer %d/%d", *snap.Layer, *snap.TotalLayers))
	}
	if snap.SpeedFactor != nil {
		parts = append(parts, fmt.Sprintf("🏎️ %d%%", percent(*snap.SpeedFactor)))
	}
	return strings.Join(parts, " | ")
}

func errorDetail(snap moonraker.Snapshot) string {
	if msg := strings.TrimSpace(snap.ErrorMessage); msg != "" {
		return msg
	}
	return "no details reported"
}

func heaterText(h moonraker.Heater) string {
	text := formatTemp(h.Current) + "/" + formatTemp(h.Target) + "°C"
	switch {
	case h.Heating():
		text += " (heating)"
	case h.Cooling():
		text += " (cooling)"
	}
	return text
}

func joinFields(fields []string) string {
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			kept = append(kept, field)
		}
	}
	return strings.Join(kept, " | ")
}
