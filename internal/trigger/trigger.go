package trigger

import (
	"fmt"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// Trigger reports whether the provisioning button is held at boot.
type Trigger interface {
	Pressed() (bool, error)
}

// ModeButton samples one GPIO line wired active-low with a pull-up. The
// line is read once at boot; a low reading is acted on after the fixed
// debounce delay.
type ModeButton struct {
	cfg      configuration.TriggerConfiguration
	logger   logger.Logger
	readLine func() (int, error)
	sleep    func(time.Duration)
}

func NewModeButton(cfg configuration.TriggerConfiguration, log logger.Logger) *ModeButton {
	b := &ModeButton{
		cfg:    cfg,
		logger: log,
		sleep:  time.Sleep,
	}
	b.readLine = b.readLineValue
	return b
}

func (b *ModeButton) readLineValue() (int, error) {
	chip, err := gpiod.NewChip(b.cfg.Chip)
	if err != nil {
		return 0, fmt.Errorf("open gpio chip %v: %w", b.cfg.Chip, err)
	}
	defer chip.Close()

	line, err := chip.RequestLine(b.cfg.Line, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		return 0, fmt.Errorf("request gpio line %v: %w", b.cfg.Line, err)
	}
	defer line.Close()

	return line.Value()
}

// Pressed performs the single boot-time check.
func (b *ModeButton) Pressed() (bool, error) {
	v, err := b.readLine()
	if err != nil {
		return false, err
	}
	if v != 0 {
		return false, nil
	}

	b.logger.Info("Mode button pressed, debouncing for %v ms", b.cfg.DebounceMs)
	b.sleep(time.Duration(b.cfg.DebounceMs) * time.Millisecond)
	return true, nil
}
