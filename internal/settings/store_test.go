package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "settings.json"))
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	st := tempStore(t)
	got, err := st.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Default() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := tempStore(t)
	want := Settings{
		Device:        "/dev/ttyUSB0",
		BaudRate:      115200,
		LocalAddress:  "10.0.0.1",
		RemoteAddress: "10.0.0.2",
	}
	if err := st.Save(want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestSaveInvalidLeavesPriorUntouched(t *testing.T) {
	st := tempStore(t)
	prior := Settings{
		Device:        "/dev/ttyUSB0",
		BaudRate:      115200,
		LocalAddress:  "10.0.0.1",
		RemoteAddress: "10.0.0.2",
	}
	if err := st.Save(prior); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	bad := prior
	bad.RemoteAddress = "not-an-ip"
	err := st.Save(bad)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != prior {
		t.Fatalf("prior settings changed: got %+v want %+v", got, prior)
	}
}

func TestLoadCorruptFallsBackToDefaults(t *testing.T) {
	st := tempStore(t)
	if err := os.WriteFile(st.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := st.Load()
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if got != Default() {
		t.Fatalf("expected defaults on corrupt file, got %+v", got)
	}
}

func TestEnabledFlagRoundTrip(t *testing.T) {
	st := tempStore(t)
	enabled, err := st.Enabled()
	if err != nil {
		t.Fatalf("enabled failed: %v", err)
	}
	if enabled {
		t.Fatal("expected disabled by default")
	}
	if err := st.SetEnabled(true); err != nil {
		t.Fatalf("set enabled failed: %v", err)
	}
	enabled, err = st.Enabled()
	if err != nil {
		t.Fatalf("enabled failed: %v", err)
	}
	if !enabled {
		t.Fatal("expected enabled after SetEnabled(true)")
	}

	// The flag must survive a settings save.
	if err := st.Save(Default()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	enabled, _ = st.Enabled()
	if !enabled {
		t.Fatal("enabled flag lost by Save")
	}
}

func TestValidate(t *testing.T) {
	valid := Settings{
		Device:        "/dev/ttyS0",
		BaudRate:      921600,
		LocalAddress:  "192.168.1.205",
		RemoteAddress: "192.168.1.200",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"empty device", func(s *Settings) { s.Device = "" }, "device"},
		{"relative device", func(s *Settings) { s.Device = "ttyS0" }, "device"},
		{"traversal device", func(s *Settings) { s.Device = "/dev/../etc/passwd" }, "device"},
		{"zero baud", func(s *Settings) { s.BaudRate = 0 }, "baud_rate"},
		{"negative baud", func(s *Settings) { s.BaudRate = -9600 }, "baud_rate"},
		{"nonstandard baud", func(s *Settings) { s.BaudRate = 12345 }, "baud_rate"},
		{"empty local", func(s *Settings) { s.LocalAddress = "" }, "local_address"},
		{"bad local", func(s *Settings) { s.LocalAddress = "999.1.1.1" }, "local_address"},
		{"ipv6 local", func(s *Settings) { s.LocalAddress = "::1" }, "local_address"},
		{"bad remote", func(s *Settings) { s.RemoteAddress = "10.0.0" }, "remote_address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := s.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestSaveIsAtomicNoLeftoverTemp(t *testing.T) {
	st := tempStore(t)
	if err := st.Save(Default()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(st.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the settings file, found %d entries", len(entries))
	}
}
