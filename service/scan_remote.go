package service

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/crcloud/crdeploy/entity"
	"github.com/crcloud/crdeploy/filter"
	"github.com/crcloud/crdeploy/fmte"
	"github.com/crcloud/crdeploy/remote"
)

// ScanRemote recursively lists the remote tree rooted at remoteRoot and
// returns the ordered entries a download must materialize under localRoot.
//
// The scan is depth-first: a directory is appended and its subtree follows
// immediately, so every parent precedes its children and the download phase
// can mkdir before touching anything beneath. Excluded directories are
// pruned, never listed. If remoteRoot is itself a regular file, the result
// is a single entry named after the file.
//
// An entry whose type can't be determined from its stat metadata is kept,
// tagged unknown, and warned about; the transfer phase skips it with a
// notice rather than failing.
func ScanRemote(ops remote.FileOps, remoteRoot string, localRoot string, rules filter.Rules) ([]entity.RemoteEntry, error) {
	rootInfo, err := ops.Lstat(remoteRoot)
	if err != nil {
		return nil, fmt.Errorf("couldn't stat remote path %q: %w", remoteRoot, err)
	}
	if rootInfo.Mode().IsRegular() {
		name := path.Base(remoteRoot)
		return []entity.RemoteEntry{{
			RemotePath:   remoteRoot,
			RelativePath: name,
			LocalPath:    filepath.Join(localRoot, name),
			Type:         entity.TypeFile,
			Size:         rootInfo.Size(),
		}}, nil
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("remote path %q is neither a regular file nor a directory", remoteRoot)
	}
	entries := make([]entity.RemoteEntry, 0, numPathsGuess)
	if err := scanDir(ops, remoteRoot, "", localRoot, rules, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanDir(ops remote.FileOps, remoteRoot string, rel string, localRoot string,
	rules filter.Rules, out *[]entity.RemoteEntry) error {
	dirPath := path.Join(remoteRoot, rel)
	infos, err := ops.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("couldn't list remote directory %q: %w", dirPath, err)
	}
	for _, info := range infos {
		childRel := path.Join(rel, info.Name())
		child := entity.RemoteEntry{
			RemotePath:   path.Join(remoteRoot, childRel),
			RelativePath: childRel,
			LocalPath:    filepath.Join(localRoot, filepath.FromSlash(childRel)),
			Size:         info.Size(),
		}
		switch {
		case info.IsDir():
			if rules.DecideDir(childRel, info.Name()) == filter.Exclude {
				continue
			}
			child.Type = entity.TypeDirectory
			child.Size = 0
			*out = append(*out, child)
			if err := scanDir(ops, remoteRoot, childRel, localRoot, rules, out); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if rules.DecideFile(childRel) == filter.Exclude {
				continue
			}
			child.Type = entity.TypeFile
			*out = append(*out, child)
		default:
			if rules.DecideFile(childRel) == filter.Exclude {
				continue
			}
			fmte.Warnf("couldn't determine type of remote entry \"%s\", it will be skipped\n", child.RemotePath)
			child.Type = entity.TypeUnknown
			*out = append(*out, child)
		}
	}
	return nil
}
