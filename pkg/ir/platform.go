package ir

import (
	"fmt"
	"runtime"
)

// Platform is an FMI binaries/<id> directory and the shared-library
// extension used there.
type Platform struct {
	ID        string `json:"id"`
	Extension string `json:"extension"` // without the dot
}

var platforms = map[string]Platform{
	"linux64":  {ID: "linux64", Extension: "so"},
	"linux32":  {ID: "linux32", Extension: "so"},
	"darwin64": {ID: "darwin64", Extension: "dylib"},
	"win64":    {ID: "win64", Extension: "dll"},
	"win32":    {ID: "win32", Extension: "dll"},
}

// ParsePlatform resolves a platform identifier.
func ParsePlatform(id string) (Platform, error) {
	p, ok := platforms[id]
	if !ok {
		return Platform{}, fmt.Errorf("unknown platform %q", id)
	}
	return p, nil
}

// PlatformFor maps a GOOS/GOARCH pair to its FMI platform.
func PlatformFor(goos, goarch string) (Platform, error) {
	bits := "64"
	switch goarch {
	case "386", "arm", "mips", "mipsle":
		bits = "32"
	}
	switch goos {
	case "linux":
		return ParsePlatform("linux" + bits)
	case "darwin":
		return ParsePlatform("darwin" + bits)
	case "windows":
		return ParsePlatform("win" + bits)
	}
	return Platform{}, fmt.Errorf("no FMI platform for %s/%s", goos, goarch)
}

// HostPlatform returns the platform of the running process.
func HostPlatform() (Platform, error) {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}
