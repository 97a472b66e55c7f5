package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jeyu73/pwmwave/pkg/synth"
)

// Protocol lines shared by firmware and host.
const (
	BannerLine = "ARDUINO_READY"
	AckLine    = "ACK"
	NackLine   = "NACK"

	// ParseErrorLine is the NACK detail with a hint of the expected format.
	ParseErrorLine = `PARSE_ERROR expected "<frequency> <amplitude>"`
)

// Applier applies a validated (frequency, amplitude) pair and reports
// the effective parameters. Implemented by *synth.Synth.
type Applier interface {
	Apply(frequency, amplitude float64) (synth.Applied, error)
}

var _ Applier = (*synth.Synth)(nil)

// Handler turns host command lines into responses. One line in, two
// lines out: ACK plus a detail line on success, NACK plus a parse error
// on failure. Failed lines cause no state change.
type Handler struct {
	applier Applier
}

// NewHandler creates a protocol handler driving the given applier.
func NewHandler(applier Applier) *Handler {
	return &Handler{applier: applier}
}

// HandleLine processes one complete command line and returns the
// response lines to emit.
func (h *Handler) HandleLine(line string) []string {
	cmd, err := ParseCommand(line)
	if err != nil {
		return []string{NackLine, ParseErrorLine}
	}

	applied, err := h.applier.Apply(cmd.FrequencyHz, cmd.AmplitudeVolts)
	if err != nil {
		return []string{NackLine, ParseErrorLine}
	}
	return []string{AckLine, FormatDetail(applied)}
}

// FormatDetail renders the ACK detail line for applied parameters.
func FormatDetail(ap synth.Applied) string {
	return fmt.Sprintf("FREQ_HZ=%.3f AMP_V=%.3f TABLE_SIZE=%d INTERVAL_US=%d",
		ap.FrequencyHz, ap.AmplitudeVolts, ap.TableSize, ap.IntervalMicros)
}

// ParseDetail parses an ACK detail line back into applied parameters.
// Used by the host device layer to read responses from the firmware.
func ParseDetail(line string) (synth.Applied, error) {
	var (
		ap   synth.Applied
		seen int
	)

	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return synth.Applied{}, fmt.Errorf("detail field %q: %w", field, ErrParse)
		}

		var err error
		switch key {
		case "FREQ_HZ":
			ap.FrequencyHz, err = strconv.ParseFloat(value, 64)
		case "AMP_V":
			ap.AmplitudeVolts, err = strconv.ParseFloat(value, 64)
		case "TABLE_SIZE":
			ap.TableSize, err = strconv.Atoi(value)
		case "INTERVAL_US":
			ap.IntervalMicros, err = strconv.ParseInt(value, 10, 64)
		default:
			return synth.Applied{}, fmt.Errorf("detail key %q: %w", key, ErrParse)
		}
		if err != nil {
			return synth.Applied{}, fmt.Errorf("detail field %q: %w", field, ErrParse)
		}
		seen++
	}

	if seen != 4 {
		return synth.Applied{}, fmt.Errorf("detail %q: %w", line, ErrParse)
	}
	return ap, nil
}
