package domain

import "errors"

// ErrNoSnapshot is returned by RestoreLatest when nothing has been archived.
var ErrNoSnapshot = errors.New("snapshot_not_found")
