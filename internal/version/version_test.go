package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	// GitCommit and BuildDate can be empty (optional)
	_ = GitCommit
	_ = BuildDate
}

func TestColoredPlain(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	cases := []struct {
		in, want string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{" 2.0.0 ", "2.0.0"},
		{"dev", "dev"},
	}
	for _, tc := range cases {
		Version = tc.in
		if got := Colored(false); got != tc.want {
			t.Errorf("Colored(false) for %q = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestColoredPaintsSegments(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-beta"
	got := Colored(true)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escape codes, got %q", got)
	}
	if !strings.HasSuffix(got, "-beta") {
		t.Fatalf("suffix lost: %q", got)
	}
	// каждый сегмент: открывающий SGR, цифра, сброс
	for _, seg := range []string{"1", "2", "3"} {
		if !strings.Contains(got, "m"+seg+"\x1b[") {
			t.Fatalf("segment %s not painted in %q", seg, got)
		}
	}
}
