package app

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestCurrentBuildWithoutEmbeddedInfo(t *testing.T) {
	stubBuildInfo(t, nil)

	b := CurrentBuild()
	assert.Equal(t, Version, b.Version)
	assert.Equal(t, Commit, b.Commit)
	assert.Equal(t, runtime.Version(), b.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, b.Platform)
	assert.False(t, b.Modified)
}

func TestCurrentBuildFallsBackToVCSStamp(t *testing.T) {
	if Version != "dev" || Commit != "unknown" || BuildDate != "unknown" {
		t.Skip("binary was built with linker-provided version values")
	}
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	b := CurrentBuild()
	assert.Equal(t, "v0.4.1", b.Version)
	assert.Equal(t, "0123456789ab", b.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", b.BuildDate)
	assert.True(t, b.Modified)
	assert.Equal(t, "phicalc v0.4.1 (commit: 0123456789ab+dirty, built: 2026-01-02T03:04:05Z)", b.String())
}

func TestCurrentBuildIgnoresDevelVersion(t *testing.T) {
	if Version != "dev" {
		t.Skip("binary was built with a linker-provided version")
	}
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "dev", CurrentBuild().Version)
}

func TestBuildInfoWriteTo(t *testing.T) {
	b := BuildInfo{Version: "v1.0.0", Commit: "abc", BuildDate: "today", GoVersion: "go1.25", Platform: "linux/amd64"}

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "phicalc v1.0.0 (commit: abc, built: today)\n  go:       go1.25\n  platform: linux/amd64\n", buf.String())
}
