package remote

import "errors"

// ErrAuth indicates the server rejected the supplied credentials. The
// password is ephemeral and single-use, so retrying without fetching a
// fresh credential is pointless; callers surface this and stop.
var ErrAuth = errors.New("authentication failed")

// ErrNetwork indicates a transport-level failure (connect or mid-session).
// Not retried automatically; the whole sync operation is retried from
// scratch if desired.
var ErrNetwork = errors.New("network failure")
