package codegen

import (
	"fmt"
	"strings"
)

// Version is set at build time:
//
//	go build -ldflags "-X github.com/Alia5/metagen/internal/codegen.Version=x.y.z"
var Version = ""

// GetVersion returns the build version without a leading "v", or "0.0.1-dev"
// for development builds. It is stamped into every generated file.
func GetVersion() (string, error) {
	if Version == "" {
		return "0.0.1-dev", nil
	}
	version := strings.TrimPrefix(Version, "v")
	base, _, _ := strings.Cut(version, "-")
	if strings.Count(base, ".") != 2 {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}
	return version, nil
}
