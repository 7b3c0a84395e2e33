package pppd

import (
	"strconv"

	"ppplink/internal/settings"
)

// fixedOptions are passed to pppd on every launch. nodetach keeps pppd in
// the foreground so the supervisor owns its lifetime; noauth and the rest
// match a point-to-point serial link to an autopilot.
var fixedOptions = []string{
	"debug",
	"noauth",
	"nodetach",
	"crtscts",
	"local",
	"proxyarp",
	"ktune",
}

// BuildArgs maps connection settings onto pppd's positional option syntax:
// device, speed, then local:remote, followed by the fixed option set.
// The mapping is deterministic and fully captured by the settings record.
func BuildArgs(s settings.Settings) []string {
	args := make([]string, 0, 3+len(fixedOptions))
	args = append(args,
		s.Device,
		strconv.Itoa(s.BaudRate),
		s.LocalAddress+":"+s.RemoteAddress,
	)
	return append(args, fixedOptions...)
}
