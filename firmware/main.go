//go:build tinygo

//go:generate tinygo flash -target=nano-33-ble

package main

import (
	"machine"
	"time"

	"github.com/Jeyu73/pwmwave/pkg/config"
	"github.com/Jeyu73/pwmwave/pkg/proto"
	"github.com/Jeyu73/pwmwave/pkg/synth"
	"github.com/Jeyu73/pwmwave/pkg/wavetable"
)

var uart = machine.Serial

// pwmPeripheral matches the PWM groups exposed by machine (PWM0..PWM3).
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmOutput drives one hardware PWM channel from a [0, 1] duty cycle.
type pwmOutput struct {
	pwm pwmPeripheral
	ch  uint8
}

func (p *pwmOutput) SetDuty(duty float32) {
	p.pwm.Set(p.ch, uint32(duty*float32(p.pwm.Top())))
}

// loopTimer schedules sample ticks inside the cooperative main loop.
// Suspend, Resume and due all run on that one loop, so no locking is
// needed: while a command is being handled no ticks fire.
type loopTimer struct {
	interval  time.Duration
	suspended bool
	next      time.Time
}

func (t *loopTimer) Suspend() {
	t.suspended = true
}

func (t *loopTimer) Resume(interval time.Duration) {
	t.interval = interval
	t.suspended = interval <= 0
	t.next = time.Now().Add(interval)
}

func (t *loopTimer) due(now time.Time) bool {
	if t.suspended || now.Before(t.next) {
		return false
	}
	t.next = t.next.Add(t.interval)
	if t.next.Before(now) {
		// Fell behind (e.g. after handling a command); skip ahead
		// instead of bursting ticks to catch up.
		t.next = now.Add(t.interval)
	}
	return true
}

func main() {
	cfg := config.Default()

	policy, err := wavetable.NewPolicy(cfg)
	if err != nil {
		halt("bad table size policy", err)
	}

	pwm := machine.PWM0
	if err := pwm.Configure(machine.PWMConfig{Period: PWM_PERIOD_NS}); err != nil {
		halt("pwm configure failed", err)
	}
	ch, err := pwm.Channel(PIN_PWM)
	if err != nil {
		halt("pwm channel failed", err)
	}

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	timer := &loopTimer{suspended: true}
	engine := synth.New(cfg, policy, &pwmOutput{pwm: pwm, ch: ch}, timer)
	handler := proto.NewHandler(engine)
	lines := proto.NewLineAssembler(LINE_BUFFER_SIZE)

	// Announce readiness so the host knows the board rebooted
	println(proto.BannerLine)

	// Main loop
	for {
		processSerial(handler, lines)

		if timer.due(time.Now()) {
			engine.Tick()
		}

		// Small delay to prevent a tight loop while staying well under
		// the shortest sample interval
		time.Sleep(5 * time.Microsecond)
	}
}

func processSerial(handler *proto.Handler, lines *proto.LineAssembler) {
	// Read available bytes from serial
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		line, ok := lines.Push(data)
		if !ok || line == "" {
			continue
		}

		for _, response := range handler.HandleLine(line) {
			println(response)
		}
	}
}

// halt reports a fatal setup error over serial forever. Only reachable
// after a bad local edit; the stock configuration always validates.
func halt(msg string, err error) {
	for {
		print(msg)
		if err != nil {
			print(": ")
			print(err.Error())
		}
		print("\n")
		time.Sleep(time.Second)
	}
}
