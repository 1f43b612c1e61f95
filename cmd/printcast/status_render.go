package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"printcast/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatus(out io.Writer, resp *ipc.StatusResponse) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusWarn
	runningDetail := "stopped; run `printcast start`"
	if resp.Running {
		runningKind = statusOK
		runningDetail = fmt.Sprintf("pid %d", resp.PID)
	}
	fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningDetail, colorize))

	authKind := statusError
	authDetail := "not seeded; run `printcast auth seed`"
	if resp.AuthSeeded {
		authKind = statusOK
		authDetail = "token state present"
	}
	fmt.Fprintln(out, renderStatusLine("Twitch auth", authKind, authDetail, colorize))

	if resp.PrinterPhase != "" {
		fmt.Fprintln(out, renderStatusLine("Printer phase", statusInfo, resp.PrinterPhase, colorize))
	}
	if resp.LastTitle != "" {
		fmt.Fprintln(out, renderStatusLine("Stream title", statusInfo, resp.LastTitle, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Log file", statusInfo, resp.LogPath, colorize))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Webcam Stream", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range streamLines(resp.Stream, colorize) {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Workers", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := buildWorkerRows(resp.Workers)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No workers running")
		return
	}
	table := renderTable(
		[]string{"Worker", "Phase", "Ticks", "Failures", "Skips", "Last Success", "Last Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
	fmt.Fprintln(out, table)
}

func streamLines(status ipc.StreamStatus, colorize bool) []string {
	if !status.Enabled {
		return []string{renderStatusLine("Stream", statusInfo, "disabled in configuration", colorize)}
	}
	lines := make([]string, 0, 3)
	if status.Running {
		detail := "ffmpeg running"
		if !status.StartedAt.IsZero() {
			detail = fmt.Sprintf("ffmpeg up %s", time.Since(status.StartedAt).Round(time.Second))
		}
		lines = append(lines, renderStatusLine("Stream", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Stream", statusWarn, "ffmpeg not running", colorize))
	}
	lines = append(lines, renderStatusLine("Restarts", statusInfo, fmt.Sprintf("%d", status.Restarts), colorize))
	if status.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
	}
	return lines
}

func buildWorkerRows(workers []ipc.WorkerStatus) [][]string {
	rows := make([][]string, 0, len(workers))
	for _, w := range workers {
		lastSuccess := "never"
		if !w.LastSuccess.IsZero() {
			lastSuccess = w.LastSuccess.Local().Format("15:04:05")
		}
		rows = append(rows, []string{
			w.Name,
			w.Phase,
			fmt.Sprintf("%d", w.Ticks),
			fmt.Sprintf("%d", w.Failures),
			fmt.Sprintf("%d", w.Skips),
			lastSuccess,
			w.LastError,
		})
	}
	return rows
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
