package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVars(t *testing.T, v, commit string) {
	t.Helper()
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = v, commit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })
}

func noColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestDefaultVersionIsPlain(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should have a default value")
	}
	for _, r := range Version {
		if r == 0x1b {
			t.Fatalf("Version %q contains escape codes", Version)
		}
	}
}

func TestColored(t *testing.T) {
	noColor(t)
	tests := []string{"1.2.3", "0.1.0-dev", "1.2", "weird"}
	for _, v := range tests {
		if got := Colored(v); got != v {
			t.Errorf("Colored(%q) = %q without colours", v, got)
		}
	}

	color.NoColor = false
	if got := Colored("1.2.3"); got == "1.2.3" {
		t.Error("Colored added no colour codes")
	}
}

func TestBanner(t *testing.T) {
	noColor(t)
	withVars(t, "1.2.3", "abc123def4567890")
	if got, want := Banner(), "naggy 1.2.3 (abc123def456)"; got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
	GitCommit = ""
	if got, want := Banner(), "naggy 1.2.3"; got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
}

func TestCurrent(t *testing.T) {
	withVars(t, "2.0.0", "deadbeef")
	info := Current()
	if info.Version != "2.0.0" || info.GitCommit != "deadbeef" {
		t.Errorf("Current() = %+v", info)
	}
}
