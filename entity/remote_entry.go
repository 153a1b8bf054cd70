package entity

// EntryType classifies a remote listing entry.
type EntryType int8

const (
	// TypeUnknown means the remote stat metadata didn't determine the type.
	// Such entries are skipped with a notice during transfer, never fatal.
	TypeUnknown EntryType = iota
	// TypeFile is a regular file
	TypeFile
	// TypeDirectory is a directory
	TypeDirectory
)

func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// RemoteEntry is one node discovered by a remote scan. It is created by the
// scanner and consumed exactly once by the download phase.
type RemoteEntry struct {
	// RemotePath is the full POSIX path on the server
	RemotePath string
	// RelativePath is RemotePath relative to the scan root
	RelativePath string
	// LocalPath is the local destination this entry maps to
	LocalPath string
	// Type is the entry's type per remote stat metadata
	Type EntryType
	// Size is the file size in bytes (0 for directories)
	Size int64
}
