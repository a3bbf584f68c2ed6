package battery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"toddlerclock/internal/config"
	appLog "toddlerclock/internal/log"
)

// MockBus is the bus name that selects the mock reader, for running the
// clock on a desk without a battery HAT.
const MockBus = "mock"

// Status is the battery state shown in the corner of the clock face.
type Status struct {
	// Percent is the battery level in 0–100%.
	Percent int `json:"percent"`
	// VoltageMv is the battery voltage in millivolts, 0 if unknown.
	VoltageMv int `json:"voltage_mv"`
}

// Reader abstracts how we obtain battery information.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// mockReader returns pseudo-random levels for development. The render loop
// and the web server share one reader, so rnd is guarded by mu.
type mockReader struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// i2cReader talks to a PiSugar-style battery controller over I2C:
//   - 0x22 (high), 0x23 (low): battery voltage in millivolts
//   - 0x2A: battery percentage (0–100)
type i2cReader struct {
	busName string
	addr    uint16
}

// NewMockReader constructs a mock Reader seeded with seed.
func NewMockReader(seed int64) Reader {
	return &mockReader{rnd: rand.New(rand.NewSource(seed))}
}

// NewI2CReader constructs an I2C-backed Reader. busName "" selects the
// default bus (/dev/i2c-1 on a Raspberry Pi). Nothing is opened until Read.
func NewI2CReader(busName string, addr uint16) Reader {
	return &i2cReader{busName: busName, addr: addr}
}

func (m *mockReader) Read(_ context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// 20..100 inclusive; voltage unknown.
	return Status{Percent: 20 + m.rnd.Intn(81)}, nil
}

// Read implements Reader for the I2C-backed reader.
func (r *i2cReader) Read(ctx context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Status{}, errors.New("battery: i2c reader unavailable on this platform")
	}
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if _, err := host.Init(); err != nil {
		return Status{}, fmt.Errorf("battery: periph host init: %w", err)
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return Status{}, fmt.Errorf("battery: open i2c bus %q: %w", r.busName, err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}

	readReg := func(reg byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{reg}, buf); err != nil {
			return 0, err
		}
		return buf[0], nil
	}

	high, err := readReg(0x22)
	if err != nil {
		return Status{}, err
	}
	low, err := readReg(0x23)
	if err != nil {
		return Status{}, err
	}
	pct, err := readReg(0x2A)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Percent:   clampPercent(int(pct)),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
	}, nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// FromConfig returns the Reader the clock should use, or nil when the
// battery gauge is disabled or unreachable. A nil Reader means the corner
// indicator is simply not drawn.
func FromConfig(ctx context.Context, cfg config.BatteryConfig) Reader {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Bus == MockBus {
		appLog.Info("battery: using mock reader")
		return NewMockReader(1)
	}

	r := NewI2CReader(cfg.Bus, cfg.Addr)
	if _, err := r.Read(ctx); err != nil {
		appLog.Error("battery: probe failed; indicator disabled", err, "bus", cfg.Bus, "addr", fmt.Sprintf("0x%02x", cfg.Addr))
		return nil
	}
	return r
}
