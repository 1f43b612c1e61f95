package summary_test

import (
	"strings"
	"testing"
	"time"

	"printcast/internal/moonraker"
	"printcast/internal/summary"
)

func ptr[T any](v T) *T { return &v }

func printingSnapshot() moonraker.Snapshot {
	remaining := time.Hour
	return moonraker.Snapshot{
		Phase:     moonraker.PhasePrinting,
		Progress:  ptr(0.42),
		Elapsed:   43 * time.Minute,
		Remaining: &remaining,
		Filename:  "vase.gcode",
		Hotend:    &moonraker.Heater{Current: 210, Target: 210},
		Bed:       &moonraker.Heater{Current: 60, Target: 60},
	}
}

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestSummarizePrintingScenario(t *testing.T) {
	chat, title := summary.Summarize(printingSnapshot(), fixedNow)

	if !strings.Contains(title, "42%") {
		t.Fatalf("title missing progress: %q", title)
	}
	if !strings.Contains(title, "vase") {
		t.Fatalf("title missing filename: %q", title)
	}
	if !strings.Contains(chat, "210") {
		t.Fatalf("chat missing hotend temperature: %q", chat)
	}
	if !strings.Contains(chat, "1h00m left") {
		t.Fatalf("chat missing remaining estimate: %q", chat)
	}
	if !strings.Contains(chat, "15:09:26") {
		t.Fatalf("chat missing timestamp: %q", chat)
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	chatA, titleA := summary.Summarize(printingSnapshot(), fixedNow)
	chatB, titleB := summary.Summarize(printingSnapshot(), fixedNow)
	if chatA != chatB || titleA != titleB {
		t.Fatal("identical inputs produced different outputs")
	}
}

func TestTitleLengthBoundAndChatNonEmpty(t *testing.T) {
	longName := strings.Repeat("long-part-", 30) + ".gcode"
	snapshots := []moonraker.Snapshot{
		{},
		{Phase: moonraker.PhaseIdle},
		{Phase: moonraker.PhaseUnknown},
		{Phase: moonraker.PhaseComplete, Filename: longName},
		{Phase: moonraker.PhasePrinting, Progress: ptr(0.0)},
		{Phase: moonraker.PhasePrinting, Progress: ptr(1.0), Filename: longName},
		{Phase: moonraker.PhaseError, ErrorMessage: strings.Repeat("толстый провод перегрелся ", 20)},
		printingSnapshot(),
	}
	for i, snap := range snapshots {
		chat, title := summary.Summarize(snap, fixedNow)
		if chat == "" {
			t.Fatalf("snapshot %d: empty chat text", i)
		}
		if got := len([]rune(title)); got > summary.TitleLimit {
			t.Fatalf("snapshot %d: title %d runes exceeds limit: %q", i, got, title)
		}
		if title == "" {
			t.Fatalf("snapshot %d: empty title", i)
		}
	}
}

func TestTitleDropsFilenameBeforeProgress(t *testing.T) {
	snap := printingSnapshot()
	snap.Filename = strings.Repeat("x", 200) + ".gcode"

	_, title := summary.Summarize(snap, fixedNow)
	if strings.Contains(title, "xxxx") {
		t.Fatalf("expected oversized filename to be dropped: %q", title)
	}
	if !strings.Contains(title, "42%") {
		t.Fatalf("progress should survive filename drop: %q", title)
	}
	if !strings.Contains(title, "Printing") {
		t.Fatalf("phase should always survive: %q", title)
	}
}

func TestErrorPhaseDominatesBothOutputs(t *testing.T) {
	snap := printingSnapshot()
	snap.Phase = moonraker.PhaseError
	snap.ErrorMessage = "Heater extruder not heating at expected rate"

	chat, title := summary.Summarize(snap, fixedNow)
	if !strings.Contains(title, "Printer error") || !strings.Contains(title, "not heating") {
		t.Fatalf("title missing error condition: %q", title)
	}
	if !strings.HasPrefix(chat, "⚠️ Printer error") {
		t.Fatalf("chat should lead with the error: %q", chat)
	}
}

func TestErrorWithoutMessageStillMentionsError(t *testing.T) {
	snap := moonraker.Snapshot{Phase: moonraker.PhaseError}
	chat, title := summary.Summarize(snap, fixedNow)
	if !strings.Contains(title, "error") && !strings.Contains(title, "Error") {
		t.Fatalf("title missing error mention: %q", title)
	}
	if !strings.Contains(chat, "no details reported") {
		t.Fatalf("chat missing fallback detail: %q", chat)
	}
}

func TestProgressRenderedAsClampedPercent(t *testing.T) {
	cases := []struct {
		fraction float64
		want     string
	}{
		{-0.5, "0%"},
		{0, "0%"},
		{0.425, "42%"},
		{0.999, "100%"},
		{2.3, "100%"},
	}
	for _, tc := range cases {
		snap := moonraker.Snapshot{Phase: moonraker.PhasePrinting, Progress: ptr(tc.fraction)}
		chat, _ := summary.Summarize(snap, fixedNow)
		if !strings.Contains(chat, tc.want) {
			t.Fatalf("fraction %v: chat %q missing %q", tc.fraction, chat, tc.want)
		}
	}
}

func TestAbsentProgressIsOmittedNotZero(t *testing.T) {
	snap := moonraker.Snapshot{Phase: moonraker.PhasePrinting}
	chat, title := summary.Summarize(snap, fixedNow)
	if strings.Contains(chat, "0%") || strings.Contains(title, "0%") {
		t.Fatalf("absent progress must not render as 0%%: chat=%q title=%q", chat, title)
	}
}

func TestHeatingCoolingMarkers(t *testing.T) {
	snap := moonraker.Snapshot{
		Phase:  moonraker.PhasePrinting,
		Hotend: &moonraker.Heater{Current: 180, Target: 210},
		Bed:    &moonraker.Heater{Current: 65, Target: 60},
	}
	chat, _ := summary.Summarize(snap, fixedNow)
	if !strings.Contains(chat, "Hotend 180/210°C (heating)") {
		t.Fatalf("missing heating marker: %q", chat)
	}
	if !strings.Contains(chat, "Bed 65/60°C (cooling)") {
		t.Fatalf("missing cooling marker: %q", chat)
	}
}
