package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuild(t *testing.T, version, commit, branch, buildTime string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origBranch, origBuildTime, origRead :=
		Version, GitCommit, GitBranch, BuildTime, readBuildInfo
	t.Cleanup(func() {
		Version, GitCommit, GitBranch, BuildTime, readBuildInfo =
			origVersion, origCommit, origBranch, origBuildTime, origRead
	})
	Version, GitCommit, GitBranch, BuildTime = version, commit, branch, buildTime
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGetDefaults(t *testing.T) {
	stubBuild(t, "dev", "", "", "", nil)

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.Short() != "dev" {
		t.Errorf("expected short 'dev', got %q", info.Short())
	}
}

func TestGetLdflags(t *testing.T) {
	stubBuild(t, "1.0.0", "abc1234", "feature-x", "2024-01-15T10:30:00Z", nil)

	info := Get()
	if !info.IsRelease {
		t.Error("1.0.0 should be a release")
	}
	if info.BuildDate.Year() != 2024 {
		t.Errorf("expected build year 2024, got %d", info.BuildDate.Year())
	}
	if got := info.Short(); got != "1.0.0-abc1234" {
		t.Errorf("expected '1.0.0-abc1234', got %q", got)
	}
	s := info.String()
	if !strings.HasPrefix(s, "1.0.0-abc1234-feature-x (built 2024-01-15T10:30:00Z)") {
		t.Errorf("unexpected full version %q", s)
	}
}

func TestGetFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Path: "github.com/kbukum/flowpipe"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2025-03-01T08:00:00Z"},
		},
	}
	stubBuild(t, "1.2.0", "", "main", "", bi)

	info := Get()
	if info.GitCommit != "0123456" {
		t.Errorf("expected shortened commit, got %q", info.GitCommit)
	}
	if !info.IsDirty || info.IsRelease {
		t.Errorf("dirty tree must not be a release: %+v", info)
	}
	if info.Module != "github.com/kbukum/flowpipe" {
		t.Errorf("unexpected module %q", info.Module)
	}
	if info.BuildTime != "2025-03-01T08:00:00Z" {
		t.Errorf("expected vcs time, got %q", info.BuildTime)
	}
	if got := info.Short(); got != "1.2.0-0123456-dirty" {
		t.Errorf("unexpected short version %q", got)
	}
	if s := info.String(); strings.Contains(s, "main") || !strings.HasSuffix(s, "go1.26.0") {
		t.Errorf("unexpected full version %q", s)
	}
}

func TestLdflagsWinOverVCS(t *testing.T) {
	bi := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "fffffffffff"},
		{Key: "vcs.time", Value: "2025-03-01T08:00:00Z"},
	}}
	stubBuild(t, "2.0.0", "abc1234", "", "2024-01-15T10:30:00Z", bi)

	info := Get()
	if info.GitCommit != "abc1234" {
		t.Errorf("expected ldflags commit, got %q", info.GitCommit)
	}
	if info.BuildTime != "2024-01-15T10:30:00Z" {
		t.Errorf("expected ldflags build time, got %q", info.BuildTime)
	}
}
