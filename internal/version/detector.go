// Package version resolves the application version from build metadata.
package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "devel"
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
}

// NewDetector constructs a Detector over the provided build metadata source.
//
// A nil provider falls back to the runtime's own build information.
func NewDetector(buildInfoProvider BuildInfoProvider) *Detector {
	if buildInfoProvider == nil {
		buildInfoProvider = runtimeBuildInfoProvider{}
	}
	return &Detector{buildInfoProvider: buildInfoProvider}
}

// Detect reports the module version embedded at build time.
//
// Development builds without stamped module metadata report "unknown".
func (detector *Detector) Detect() string {
	buildInfo, buildInfoAvailable := detector.buildInfoProvider.Read()
	if !buildInfoAvailable || buildInfo == nil {
		return unknownVersionFallbackConstant
	}

	moduleVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(moduleVersion) == 0 || moduleVersion == buildInfoDevelVersionValue || moduleVersion == "(devel)" {
		return unknownVersionFallbackConstant
	}
	return moduleVersion
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
