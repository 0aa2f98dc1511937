// Package platform names the operating systems and CPU architectures a
// browser build can target, and detects the host's values.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is a target operating system.
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// All lists the supported platforms in display order.
func All() []Platform {
	return []Platform{Windows, MacOS, Linux}
}

// Current reports the platform of the running process.
func Current() Platform {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// Parse converts user input into a Platform. "darwin" and "mac" are accepted
// as aliases for macos.
func Parse(value string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "windows", "win":
		return Windows, nil
	case "macos", "darwin", "mac":
		return MacOS, nil
	case "linux":
		return Linux, nil
	default:
		return Unknown, fmt.Errorf("platform: unknown platform %q (want windows, macos or linux)", value)
	}
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case Windows, MacOS, Linux:
		return true
	}
	return false
}

// DisplayName returns the human-facing name.
func (p Platform) DisplayName() string {
	switch p {
	case Windows:
		return "Windows"
	case MacOS:
		return "macOS"
	case Linux:
		return "Linux"
	default:
		return "Unknown"
	}
}

func (p Platform) String() string {
	if p == "" {
		return string(Unknown)
	}
	return string(p)
}

// Architecture is a target CPU architecture.
type Architecture string

const (
	X64       Architecture = "x64"
	ARM64     Architecture = "arm64"
	Universal Architecture = "universal"
)

// CurrentArchitecture reports the host architecture.
func CurrentArchitecture() Architecture {
	if runtime.GOARCH == "arm64" {
		return ARM64
	}
	return X64
}

// ParseArchitecture converts user input into an Architecture.
func ParseArchitecture(value string) (Architecture, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "x64", "amd64", "x86_64":
		return X64, nil
	case "arm64", "aarch64":
		return ARM64, nil
	case "universal":
		return Universal, nil
	default:
		return "", fmt.Errorf("platform: unknown architecture %q (want x64, arm64 or universal)", value)
	}
}

// Valid reports whether a is a supported architecture.
func (a Architecture) Valid() bool {
	switch a {
	case X64, ARM64, Universal:
		return true
	}
	return false
}

// SupportedOn reports whether the architecture can be built for p. Universal
// binaries only exist on macOS.
func (a Architecture) SupportedOn(p Platform) bool {
	if a == Universal {
		return p == MacOS
	}
	return a.Valid()
}
