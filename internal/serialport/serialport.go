package serialport

import (
	"sort"
	"strings"

	"go.bug.st/serial"
)

// List returns the serial devices currently present on the host, sorted.
// Pseudo-terminals are filtered out so the UI only offers real ports.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		if strings.HasPrefix(p, "/dev/ptmx") || strings.HasPrefix(p, "/dev/pts/") {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether device is among the enumerated serial ports.
// Enumeration failure counts as unknown, not absent; hot-plugged adapters
// may appear between save and run.
func Exists(device string) bool {
	ports, err := serial.GetPortsList()
	if err != nil {
		return true
	}
	for _, p := range ports {
		if p == device {
			return true
		}
	}
	return false
}
