// Package filter decides which paths take part in a sync.
//
// Exclusion of a directory is pruning: the walker and the remote scanner
// never descend into it, so nothing beneath it can be rescued by an
// inclusion override. Inclusion only un-excludes entries actually reached.
package filter

import (
	"strings"

	set "github.com/deckarep/golang-set/v2"
)

// DefaultExcludedNames are directory names always excluded from uploads,
// wherever they appear in the tree.
var DefaultExcludedNames = []string{"__pycache__", "node_modules", "htmlcov", "venv"}

// DefaultDownloadExcludes are server-generated directories skipped on
// download when the caller doesn't override exclusions. Paths are relative
// to the remote root.
var DefaultDownloadExcludes = []string{"cache", "static", "wp-content/cache"}

// Decision is the outcome of a filter check.
type Decision int8

const (
	// Include means the path takes part in the sync
	Include Decision = iota
	// Exclude means the path (and, for directories, its whole subtree) is skipped
	Exclude
)

// Rules holds the exclusion and inclusion sets for one sync operation.
//
// Exclude and Include hold canonical paths: resolved absolute paths on the
// local side, root-relative POSIX paths on the remote side. ExcludedNames
// holds bare directory names; name rules apply only to directories, never
// to files. A path matches a set if it equals a member or is a descendant
// of a directory member.
type Rules struct {
	Exclude       set.Set[string]
	Include       set.Set[string]
	ExcludedNames set.Set[string]
	// Separator is the path separator of the canonical form ("/" for
	// remote-relative paths, os-specific for resolved local paths).
	Separator string
}

// NewLocalRules builds upload rules over resolved absolute local paths.
func NewLocalRules(excludes set.Set[string], includes set.Set[string], separator string) Rules {
	return Rules{
		Exclude:       excludes,
		Include:       includes,
		ExcludedNames: set.NewThreadUnsafeSet[string](DefaultExcludedNames...),
		Separator:     separator,
	}
}

// NewRemoteRules builds download rules over root-relative POSIX paths.
// Name-based defaults don't apply; the caller supplies the download
// exclusion paths (or DefaultDownloadExcludes).
func NewRemoteRules(excludes set.Set[string]) Rules {
	return Rules{
		Exclude:   excludes,
		Separator: "/",
	}
}

// DecideDir decides whether to descend into a directory. Exclusion — by
// path match, dot-prefix, or excluded name — always wins and prunes the
// whole subtree; an inclusion entry cannot rescue an excluded directory.
func (r Rules) DecideDir(path string, base string) Decision {
	if r.matches(r.Exclude, path) {
		return Exclude
	}
	if strings.HasPrefix(base, ".") && base != "." {
		return Exclude
	}
	if r.ExcludedNames != nil && r.ExcludedNames.Contains(base) {
		return Exclude
	}
	return Include
}

// DecideFile decides whether a file entry takes part. An explicit inclusion
// overrides an explicit path exclusion; directory-name rules don't apply to
// a file's own name (its excluded ancestors were pruned before the file was
// ever reached).
func (r Rules) DecideFile(path string) Decision {
	if r.matches(r.Include, path) {
		return Include
	}
	if r.matches(r.Exclude, path) {
		return Exclude
	}
	return Include
}

func (r Rules) matches(s set.Set[string], path string) bool {
	if s == nil {
		return false
	}
	if s.Contains(path) {
		return true
	}
	found := false
	s.Each(func(member string) bool {
		if strings.HasPrefix(path, member+r.Separator) {
			found = true
			return true
		}
		return false
	})
	return found
}
