package types

import (
	"github.com/google/uuid"
)

// NewProgramID generates a UUIDv7 program identifier. The embedded
// timestamp keeps sequential inserts clustered and makes IDs sortable
// by creation time. Panics on clock regression (uuid.Must).
func NewProgramID() ProgramID {
	return ProgramID(uuid.Must(uuid.NewV7()).String())
}

// NewSnapshotID generates a UUIDv7 merchant snapshot identifier. The
// store's latest-snapshot lookup orders by this ID, so the timestamp
// component is load-bearing. Panics on clock regression (uuid.Must).
func NewSnapshotID() SnapshotID {
	return SnapshotID(uuid.Must(uuid.NewV7()).String())
}
