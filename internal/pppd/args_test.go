package pppd

import (
	"reflect"
	"testing"

	"ppplink/internal/settings"
)

func TestBuildArgs(t *testing.T) {
	got := BuildArgs(settings.Settings{
		Device:        "/dev/ttyUSB0",
		BaudRate:      115200,
		LocalAddress:  "10.0.0.1",
		RemoteAddress: "10.0.0.2",
	})
	want := []string{
		"/dev/ttyUSB0", "115200", "10.0.0.1:10.0.0.2",
		"debug", "noauth", "nodetach", "crtscts", "local", "proxyarp", "ktune",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestBuildArgsDefaults(t *testing.T) {
	got := BuildArgs(settings.Default())
	want := []string{
		"/dev/ttyS0", "921600", "192.168.1.205:192.168.1.200",
		"debug", "noauth", "nodetach", "crtscts", "local", "proxyarp", "ktune",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args mismatch:\n got %v\nwant %v", got, want)
	}
}
