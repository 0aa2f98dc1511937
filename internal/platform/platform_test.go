package platform

import "testing"

func TestParseAcceptsAliases(t *testing.T) {
	cases := map[string]Platform{
		"windows": Windows,
		"Win":     Windows,
		"darwin":  MacOS,
		" macos ": MacOS,
		"linux":   Linux,
	}
	for input, want := range cases {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", input, got, want)
		}
	}
	if _, err := Parse("plan9"); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}

func TestFromGOOS(t *testing.T) {
	if got := fromGOOS("darwin"); got != MacOS {
		t.Fatalf("darwin mapped to %s", got)
	}
	if got := fromGOOS("freebsd"); got != Unknown {
		t.Fatalf("freebsd mapped to %s", got)
	}
}

func TestUniversalOnlyOnMacOS(t *testing.T) {
	if !Universal.SupportedOn(MacOS) {
		t.Fatalf("universal must be supported on macos")
	}
	if Universal.SupportedOn(Linux) {
		t.Fatalf("universal must not be supported on linux")
	}
	if !ARM64.SupportedOn(Windows) {
		t.Fatalf("arm64 should be supported on windows")
	}
}

func TestParseArchitecture(t *testing.T) {
	got, err := ParseArchitecture("amd64")
	if err != nil || got != X64 {
		t.Fatalf("amd64 -> %s, %v", got, err)
	}
	if _, err := ParseArchitecture("mips"); err == nil {
		t.Fatalf("expected error for mips")
	}
}
