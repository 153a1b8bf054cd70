package service

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/crcloud/crdeploy/filter"
	"github.com/crcloud/crdeploy/fmte"
	"github.com/crcloud/crdeploy/pathutil"
)

const numPathsGuess = 10_000

// PathsToDeploy walks the local project root and returns the ordered list
// of resolved absolute paths (directories and files) that must exist on the
// server after an upload.
//
// Directories excluded by the rules are pruned: no syscalls are issued
// beneath them, so nothing inside can re-enter the list via an inclusion
// override. The output is deterministic for an unchanged filesystem.
// Ancestor directories of any file appear earlier in the list, but the
// consumer still creates directories on demand rather than relying on a
// strict topological order.
func PathsToDeploy(root string, rules filter.Rules) ([]string, error) {
	resolvedRoot, err := pathutil.Resolve(root)
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve project root %q: %w", root, err)
	}
	rootInfo, err := os.Stat(resolvedRoot)
	if err != nil {
		return nil, fmt.Errorf("couldn't read project root %q: %w", root, err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("project root %q is not a directory", root)
	}
	paths := make([]string, 0, numPathsGuess)
	walkErr := filepath.WalkDir(resolvedRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == resolvedRoot {
				return err
			}
			fmte.PrintfErr("skipping \"%s\": %+v\n", p, err)
			return nil
		}
		if p == resolvedRoot {
			return nil
		}
		if d.IsDir() {
			if rules.DecideDir(p, d.Name()) == filter.Exclude {
				return filepath.SkipDir
			}
			paths = append(paths, p)
			return nil
		}
		if rules.DecideFile(p) == filter.Include {
			paths = append(paths, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("couldn't scan directory %s: %w", root, walkErr)
	}
	return paths, nil
}
