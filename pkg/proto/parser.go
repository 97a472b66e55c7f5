package proto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrParse is returned when a line yields no valid command.
var ErrParse = errors.New("unrecognized command line")

// Command is a validated frequency/amplitude request recovered from one
// host line.
type Command struct {
	FrequencyHz    float64
	AmplitudeVolts float64
}

// parseStrategy tries to recover a raw (frequency, amplitude) pair from
// a line. Strategies are tried in order; the first match wins.
type parseStrategy func(line string) (Command, bool)

var strategies = []parseStrategy{
	parsePair,
	parseKeywords,
}

// ParseCommand parses one host line into a Command. It first tries the
// strict form, two whitespace-separated numbers, then falls back to a
// free-text scan for the words "frequency" and "amplitude" each followed
// by a number. The recovered pair must satisfy frequency > 0 and
// amplitude ≥ 0; anything else is a parse failure.
func ParseCommand(line string) (Command, error) {
	for _, parse := range strategies {
		cmd, ok := parse(line)
		if !ok {
			continue
		}
		if cmd.FrequencyHz <= 0 || cmd.AmplitudeVolts < 0 {
			break
		}
		return cmd, nil
	}
	return Command{}, fmt.Errorf("parse %q: %w", line, ErrParse)
}

// parsePair matches exactly two whitespace-separated numeric tokens,
// frequency then amplitude.
func parsePair(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Command{}, false
	}

	freq, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Command{}, false
	}
	amp, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Command{}, false
	}
	return Command{FrequencyHz: freq, AmplitudeVolts: amp}, true
}

// parseKeywords scans free text for "frequency" and "amplitude", each
// followed by a numeric value.
func parseKeywords(line string) (Command, bool) {
	lower := strings.ToLower(line)

	freq, ok := numberAfter(lower, "frequency")
	if !ok {
		return Command{}, false
	}
	amp, ok := numberAfter(lower, "amplitude")
	if !ok {
		return Command{}, false
	}
	return Command{FrequencyHz: freq, AmplitudeVolts: amp}, true
}

// numberAfter finds the first occurrence of keyword and parses the
// number that follows it, skipping separators like spaces, '=', and ':'.
func numberAfter(line, keyword string) (float64, bool) {
	idx := strings.Index(line, keyword)
	if idx < 0 {
		return 0, false
	}

	rest := line[idx+len(keyword):]
	rest = strings.TrimLeft(rest, " \t:=")

	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(rest[:end], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
