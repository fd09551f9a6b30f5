package models

import (
	"time"

	"github.com/google/uuid"

	id "provenance/pkg/domain"
)

// StatusHistoryEntry records one status change. The first entry of every asset
// has a nil PreviousStatus and its status at creation.
//
// Seq is assigned by the store and orders entries sharing a timestamp.
type StatusHistoryEntry struct {
	ID             uuid.UUID
	Seq            int64
	AssetID        id.AssetID
	PreviousStatus *Status
	NewStatus      Status
	ChangedAt      time.Time
	ChangedBy      *id.AccountID
}

func (e StatusHistoryEntry) IsInitial() bool {
	return e.PreviousStatus == nil
}

// InitialEntry builds the creation entry for an asset. existing is the
// chronological history recorded so far; the creation status is the earliest
// entry's previous status, or the current status when nothing was recorded.
func InitialEntry(a *Asset, existing []StatusHistoryEntry, by *id.AccountID) StatusHistoryEntry {
	status := a.Status
	if len(existing) > 0 && existing[0].PreviousStatus != nil {
		status = *existing[0].PreviousStatus
	}
	return StatusHistoryEntry{
		ID:        uuid.New(),
		AssetID:   a.ID,
		NewStatus: status,
		ChangedAt: a.CreatedAt,
		ChangedBy: by,
	}
}

// HasInitial reports whether a creation entry exists.
func HasInitial(entries []StatusHistoryEntry) bool {
	for _, e := range entries {
		if e.IsInitial() {
			return true
		}
	}
	return false
}

// NewestFirst returns a reversed copy of a chronological history.
func NewestFirst(entries []StatusHistoryEntry) []StatusHistoryEntry {
	out := make([]StatusHistoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
