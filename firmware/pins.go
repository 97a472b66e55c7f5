//go:build tinygo

package main

import "machine"

const (
	// PWM output
	PIN_PWM       = machine.D9
	PWM_PERIOD_NS = 25000 // 25µs carrier (40kHz), so an RC filter can recover the sine

	// Serial configuration
	// Commands are one short line ("<frequency> <amplitude>\n", ~20 bytes)
	// and responses are two lines (~60 bytes). 115200 baud leaves ample
	// headroom even with a command per frame.
	UART_BAUD_RATE = 115200

	// Bound on an incoming command line before it is force-completed
	LINE_BUFFER_SIZE = 64
)
