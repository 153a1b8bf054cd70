// Package vcs sources default exclusions and metadata from the project's
// version control, degrading silently when none is available.
package vcs

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/crcloud/crdeploy/fmte"
	"github.com/crcloud/crdeploy/pathutil"
)

// VersionControl supplies VCS-derived defaults for a sync. Implementations
// must never fail the sync: when the tool or repository is missing they
// return empty results.
type VersionControl interface {
	// Branch returns the checked-out branch name, or "" if unknown.
	Branch() string

	// IgnoredPaths returns resolved absolute paths of files and directories
	// the VCS ignores under dir. Empty on any error.
	IgnoredPaths(dir string) []string
}

// GitCLI shells out to the user's own git binary, so the ignore semantics
// are exactly what the user sees locally.
type GitCLI struct{}

func NewGitCLI() GitCLI {
	return GitCLI{}
}

func (g GitCLI) Branch() string {
	out, err := exec.Command("git", "branch", "--show-current").Output()
	if err != nil {
		fmte.PrintfV("couldn't determine git branch: %+v\n", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (g GitCLI) IgnoredPaths(dir string) []string {
	cmd := exec.Command("git", "ls-files", "--others", "--directory", dir)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		fmte.PrintfV("couldn't list git-ignored files: %+v\n", err)
		return nil
	}
	paths := make([]string, 0, 50)
	for _, line := range strings.Split(strings.TrimRight(string(out), "\r\n"), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		resolvedPath, resolveErr := pathutil.Resolve(filepath.Join(dir, line))
		if resolveErr != nil {
			continue
		}
		paths = append(paths, resolvedPath)
	}
	return paths
}

// None is the VersionControl used when git integration is disabled.
type None struct{}

func (None) Branch() string               { return "" }
func (None) IgnoredPaths(string) []string { return nil }
