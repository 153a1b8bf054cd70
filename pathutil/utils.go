package pathutil

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IsReadableDirectory checks whether a readable directory exists at given path
func IsReadableDirectory(p string) bool {
	info, err := os.Lstat(p)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsReadableFile checks whether argument is a readable file
func IsReadableFile(p string) bool {
	fileInfo, statErr := os.Stat(p)
	if statErr != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}

// Resolve converts a local path to its absolute, symlink-resolved form.
// All PathSpec comparisons in this tool happen on resolved forms, so that
// "./app" and its resolved path compare equal.
func Resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Path may not exist yet (e.g. a download destination); keep the
		// absolute form in that case.
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

// PosixJoin joins remote path segments with forward slashes regardless of
// the local OS separator.
func PosixJoin(elem ...string) string {
	return path.Join(elem...)
}

// ToPosix converts a local relative path to its remote POSIX form.
func ToPosix(rel string) string {
	return filepath.ToSlash(rel)
}

// LineSeparatedStrToSlice converts a line-separated string to a slice of
// non-blank trimmed lines, plus the first few entries for display.
func LineSeparatedStrToSlice(lineSeparatedString string) (entries []string, firstFew []string) {
	normalized := strings.ReplaceAll(lineSeparatedString, "\r\n", "\n") // Windows
	for _, e := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(e) == "" {
			continue
		}
		entries = append(entries, e)
	}
	firstFew = entries
	if len(firstFew) > 3 {
		firstFew = firstFew[0:3]
	}
	return
}
