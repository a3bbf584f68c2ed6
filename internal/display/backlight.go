package display

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Backlight drives a screen backlight enable pin.
type Backlight struct {
	pin gpio.PinOut
}

// OpenBacklight resolves name (e.g. "GPIO18") through periph and switches
// the backlight on.
func OpenBacklight(name string) (*Backlight, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph host init failed: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("display: gpio %s not found", name)
	}
	if err := p.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("display: gpio %s Out failed: %w", name, err)
	}
	return &Backlight{pin: p}, nil
}

// Off switches the backlight off.
func (b *Backlight) Off() error {
	return b.pin.Out(gpio.Low)
}

// withBacklight turns the backlight off when the sink is closed.
type withBacklight struct {
	Sink
	bl *Backlight
}

func (w *withBacklight) Close() error {
	err := w.Sink.Close()
	if blErr := w.bl.Off(); err == nil {
		err = blErr
	}
	return err
}
