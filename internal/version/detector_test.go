package version_test

import (
	"fmt"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyemirov/docrun/internal/version"
)

type stubBuildInfoProvider struct {
	buildInfo *debug.BuildInfo
	available bool
}

func (provider stubBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return provider.buildInfo, provider.available
}

func TestDetectorDetect(testInstance *testing.T) {
	testCases := []struct {
		name            string
		provider        stubBuildInfoProvider
		expectedVersion string
	}{
		{
			name: "reports_stamped_module_version",
			provider: stubBuildInfoProvider{
				buildInfo: &debug.BuildInfo{Main: debug.Module{Version: "v1.4.2"}},
				available: true,
			},
			expectedVersion: "v1.4.2",
		},
		{
			name: "falls_back_for_devel_builds",
			provider: stubBuildInfoProvider{
				buildInfo: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
				available: true,
			},
			expectedVersion: "unknown",
		},
		{
			name: "falls_back_for_blank_version",
			provider: stubBuildInfoProvider{
				buildInfo: &debug.BuildInfo{},
				available: true,
			},
			expectedVersion: "unknown",
		},
		{
			name:            "falls_back_without_build_info",
			provider:        stubBuildInfoProvider{},
			expectedVersion: "unknown",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			detector := version.NewDetector(testCase.provider)
			require.Equal(subtestInstance, testCase.expectedVersion, detector.Detect())
		})
	}
}

func TestNewDetectorDefaultsProvider(testInstance *testing.T) {
	detector := version.NewDetector(nil)
	require.NotEmpty(testInstance, detector.Detect())
}
