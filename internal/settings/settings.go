package settings

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"
)

// Settings holds the connection parameters handed to pppd.
type Settings struct {
	Device        string `json:"device" mapstructure:"device"`
	BaudRate      int    `json:"baud_rate" mapstructure:"baud_rate"`
	LocalAddress  string `json:"local_address" mapstructure:"local_address"`
	RemoteAddress string `json:"remote_address" mapstructure:"remote_address"`
}

// standardBaudRates is the fixed set of rates accepted by Validate.
// Matches the rates pppd itself accepts on Linux serial devices.
var standardBaudRates = map[int]struct{}{
	1200: {}, 2400: {}, 4800: {}, 9600: {}, 19200: {}, 38400: {},
	57600: {}, 115200: {}, 230400: {}, 460800: {}, 500000: {}, 576000: {},
	921600: {}, 1000000: {}, 1152000: {}, 1500000: {}, 2000000: {},
	2500000: {}, 3000000: {}, 3500000: {}, 4000000: {},
}

// Default returns the built-in settings used before anything has been saved.
func Default() Settings {
	return Settings{
		Device:        "/dev/ttyS0",
		BaudRate:      921600,
		LocalAddress:  "192.168.1.205",
		RemoteAddress: "192.168.1.200",
	}
}

// ValidationError reports a single invalid settings field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks that every field is present and syntactically valid.
// All four fields must pass before a run is permitted.
func (s Settings) Validate() error {
	dev := strings.TrimSpace(s.Device)
	if dev == "" {
		return &ValidationError{Field: "device", Reason: "must not be empty"}
	}
	if !filepath.IsAbs(dev) {
		return &ValidationError{Field: "device", Reason: "must be an absolute path"}
	}
	if strings.Contains(dev, "..") {
		return &ValidationError{Field: "device", Reason: "must not contain '..'"}
	}
	if s.BaudRate <= 0 {
		return &ValidationError{Field: "baud_rate", Reason: "must be positive"}
	}
	if _, ok := standardBaudRates[s.BaudRate]; !ok {
		return &ValidationError{Field: "baud_rate", Reason: fmt.Sprintf("%d is not a standard rate", s.BaudRate)}
	}
	if err := validIPv4(s.LocalAddress); err != nil {
		return &ValidationError{Field: "local_address", Reason: err.Error()}
	}
	if err := validIPv4(s.RemoteAddress); err != nil {
		return &ValidationError{Field: "remote_address", Reason: err.Error()}
	}
	return nil
}

func validIPv4(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("must not be empty")
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return fmt.Errorf("%q is not a valid address", addr)
	}
	if !ip.Is4() {
		return fmt.Errorf("%q is not IPv4", addr)
	}
	return nil
}
