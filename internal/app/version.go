package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set at link time, for example:
//
//	go build -ldflags "-X github.com/agbru/phicalc/internal/app.Version=v0.3.0" ./cmd/phicalc
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

// CurrentBuild returns the linker-provided values. When they were not set it
// falls back to the VCS stamp that the go command embeds in module builds.
func CurrentBuild() BuildInfo {
	b := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := readBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if b.BuildDate == "unknown" {
				b.BuildDate = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String renders the one-line form used by --version.
func (b BuildInfo) String() string {
	commit := b.Commit
	if b.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("phicalc %s (commit: %s, built: %s)", b.Version, commit, b.BuildDate)
}

// WriteTo prints the multi-line form used by the version command.
func (b BuildInfo) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "%s\n  go:       %s\n  platform: %s\n", b, b.GoVersion, b.Platform)
	return int64(n), err
}
