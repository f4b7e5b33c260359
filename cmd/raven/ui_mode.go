package main

import (
	"fmt"
	"os"
	"strings"

	"raven/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on", "true":
		return uiModeOn, nil
	case "off", "false":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI: the progress view needs the terminal, so it is off when
// the program itself goes to stdout.
func shouldUseTUI(mode uiMode, toStdout bool) bool {
	if toStdout {
		return false
	}
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return ui.Enabled(os.Stdout)
	}
}
