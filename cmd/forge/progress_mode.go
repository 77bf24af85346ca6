package main

import (
	"fmt"
	"os"
	"strings"
)

// progressMode controls whether build actions render the interactive
// progress view or plain line output.
type progressMode int

const (
	progressAuto progressMode = iota
	progressAlways
	progressNever
)

// parseProgressMode maps a --ui flag value onto a progressMode. Matching is
// case-insensitive and tolerates surrounding whitespace; an empty value
// means auto.
func parseProgressMode(value string) (progressMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return progressAuto, nil
	case "on":
		return progressAlways, nil
	case "off":
		return progressNever, nil
	}
	return progressAuto, fmt.Errorf("invalid --ui value %q (expected auto, on or off)", value)
}

// wantInteractive reports whether the progress view should run. Auto mode
// defers to terminal detection so piped output stays plain.
func (m progressMode) wantInteractive() bool {
	switch m {
	case progressAlways:
		return true
	case progressNever:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
