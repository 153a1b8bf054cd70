// Package transfer executes a computed sync plan against a remote session.
//
// Transfers are two-phase: the walker/scanner build the full plan before
// any remote mutation, then the engine processes entries strictly
// sequentially over a single session. Any primitive failure on a file
// aborts the whole transfer; partial state is left for a full re-run to
// overwrite.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	set "github.com/deckarep/golang-set/v2"

	"github.com/crcloud/crdeploy/bytesutil"
	"github.com/crcloud/crdeploy/entity"
	"github.com/crcloud/crdeploy/filter"
	"github.com/crcloud/crdeploy/pathutil"
	"github.com/crcloud/crdeploy/remote"
	"github.com/crcloud/crdeploy/service"
)

// remoteDirMode is the mode for directories created on the server.
const remoteDirMode os.FileMode = 0o770

const localDirMode os.FileMode = 0o755

// Summary reports what a completed transfer did.
type Summary struct {
	Dirs    int
	Files   int
	Skipped int
	Bytes   int64
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d directories, %d files (%s)", s.Dirs, s.Files, bytesutil.BinaryFormat(s.Bytes))
	if s.Skipped > 0 {
		out += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	return out
}

// Engine performs uploads and downloads over remote primitives.
type Engine struct {
	ops  remote.FileOps
	sink ProgressSink
}

// NewEngine wires an engine to a session (or any FileOps) and a progress
// sink. A nil sink discards progress.
func NewEngine(ops remote.FileOps, sink ProgressSink) *Engine {
	if sink == nil {
		sink = NopSink{}
	}
	return &Engine{ops: ops, sink: sink}
}

// Put uploads the planned paths so the tree under localRoot is mirrored
// under remoteRoot. Paths must be resolved absolute paths under localRoot,
// ordered as produced by the walker. Directories are created lazily with a
// stat-then-mkdir check the moment anything beneath them is materialized;
// files are overwritten unconditionally.
//
// Cancellation stops dispatching new items; the in-flight item is never
// interrupted.
func (e *Engine) Put(ctx context.Context, paths []string, localRoot string, remoteRoot string) (Summary, error) {
	var sum Summary
	rootInfo, err := os.Stat(localRoot)
	if err != nil {
		return sum, fmt.Errorf("couldn't read local root %q: %w", localRoot, err)
	}
	// If the root is a file, mirror relative to its parent directory.
	if !rootInfo.IsDir() {
		localRoot = filepath.Dir(localRoot)
	}
	knownDirs := set.NewThreadUnsafeSet[string]()
	e.sink.Begin(len(paths))
	defer e.sink.End()
	for _, p := range paths {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sum, ctxErr
		}
		rel, relErr := filepath.Rel(localRoot, p)
		if relErr != nil {
			return sum, fmt.Errorf("path %q is not under %q: %w", p, localRoot, relErr)
		}
		relPosix := pathutil.ToPosix(rel)
		info, statErr := os.Stat(p)
		if statErr != nil {
			return sum, fmt.Errorf("couldn't read %q: %w", p, statErr)
		}
		if info.IsDir() {
			if err := e.ensureRemoteDir(remoteRoot, relPosix, knownDirs, &sum); err != nil {
				return sum, err
			}
		} else {
			if err := e.ensureRemoteDir(remoteRoot, path.Dir(relPosix), knownDirs, &sum); err != nil {
				return sum, err
			}
			e.sink.Event(EventPut, relPosix)
			remotePath := pathutil.PosixJoin(remoteRoot, relPosix)
			if err := e.ops.Put(p, remotePath); err != nil {
				return sum, fmt.Errorf("upload of %q failed: %w", relPosix, err)
			}
			sum.Files++
			sum.Bytes += info.Size()
		}
		e.sink.Advance()
	}
	return sum, nil
}

// ensureRemoteDir makes sure the remote directory at rel (relative to
// remoteRoot) exists, creating missing ancestors first. A stat failure
// other than not-found is fatal: it signals a broken session or ACL
// problem, not a missing directory.
func (e *Engine) ensureRemoteDir(remoteRoot string, rel string, knownDirs set.Set[string], sum *Summary) error {
	if rel == "" || rel == "." || rel == "/" {
		return nil
	}
	full := pathutil.PosixJoin(remoteRoot, rel)
	if knownDirs.Contains(full) {
		return nil
	}
	if err := e.ensureRemoteDir(remoteRoot, path.Dir(rel), knownDirs, sum); err != nil {
		return err
	}
	_, statErr := e.ops.Lstat(full)
	if statErr == nil {
		knownDirs.Add(full)
		return nil
	}
	if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("couldn't stat remote path %q: %w", full, statErr)
	}
	e.sink.Event(EventMkdir, rel)
	if err := e.ops.Mkdir(full, remoteDirMode); err != nil {
		return fmt.Errorf("couldn't create remote directory %q: %w", full, err)
	}
	knownDirs.Add(full)
	sum.Dirs++
	return nil
}

// Get scans the remote tree under remoteRoot and downloads it beneath
// localRoot, which is created if missing. Entries of unknown type are
// skipped with a notice; directories are created idempotently; files are
// overwritten unconditionally.
func (e *Engine) Get(ctx context.Context, remoteRoot string, localRoot string, rules filter.Rules) (Summary, error) {
	var sum Summary
	entries, err := service.ScanRemote(e.ops, remoteRoot, localRoot, rules)
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(localRoot, localDirMode); err != nil {
		return sum, fmt.Errorf("couldn't create local root %q: %w", localRoot, err)
	}
	e.sink.Begin(len(entries))
	defer e.sink.End()
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sum, ctxErr
		}
		switch entry.Type {
		case entity.TypeDirectory:
			e.sink.Event(EventMkdir, entry.RelativePath)
			if err := os.MkdirAll(entry.LocalPath, localDirMode); err != nil {
				return sum, fmt.Errorf("couldn't create local directory %q: %w", entry.LocalPath, err)
			}
			sum.Dirs++
		case entity.TypeFile:
			e.sink.Event(EventGet, entry.RelativePath)
			if err := e.ops.Get(entry.RemotePath, entry.LocalPath); err != nil {
				return sum, fmt.Errorf("download of %q failed: %w", entry.RelativePath, err)
			}
			sum.Files++
			sum.Bytes += entry.Size
		default:
			e.sink.Event(EventSkip, entry.RelativePath)
			sum.Skipped++
		}
		e.sink.Advance()
	}
	return sum, nil
}
