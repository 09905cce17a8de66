package models

import (
	"time"

	"github.com/google/uuid"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient_sync, protocol_sync, patients_merged, protocols_merged
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventPatientSync     = "patient_sync"
	EventProtocolSync    = "protocol_sync"
	EventPatientsMerged  = "patients_merged"
	EventProtocolsMerged = "protocols_merged"
)

// MergeSummary is returned by the sync endpoints and published once a
// batch has been committed.
type MergeSummary struct {
	BatchID  string            `json:"batch_id"`
	Received int               `json:"received"`
	Applied  []string          `json:"applied"`
	Skipped  []string          `json:"skipped"`
	Invalid  []InvalidRecord   `json:"invalid,omitempty"`
	MergedAt time.Time         `json:"merged_at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type InvalidRecord struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (s MergeSummary) EventData() map[string]interface{} {
	return map[string]interface{}{
		"batch_id":  s.BatchID,
		"received":  s.Received,
		"applied":   s.Applied,
		"skipped":   s.Skipped,
		"invalid":   len(s.Invalid),
		"merged_at": s.MergedAt,
	}
}

// AddInvalid records a rejected payload. A nil id is left out of the record.
func (s *MergeSummary) AddInvalid(index int, id uuid.UUID, reason string) {
	record := InvalidRecord{Index: index, Reason: reason}
	if id != uuid.Nil {
		record.ID = id.String()
	}
	s.Invalid = append(s.Invalid, record)
}

func (s MergeSummary) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"batch_id": s.BatchID,
		"received": s.Received,
		"applied":  len(s.Applied),
		"skipped":  len(s.Skipped),
		"invalid":  len(s.Invalid),
	}
}

// NewMergeSummary starts the summary of a committed batch. Invalid records
// are added with AddInvalid.
func NewMergeSummary(received int, applied, skipped []uuid.UUID) MergeSummary {
	summary := MergeSummary{
		BatchID:  uuid.New().String(),
		Received: received,
		Applied:  make([]string, 0, len(applied)),
		Skipped:  make([]string, 0, len(skipped)),
		MergedAt: time.Now().UTC(),
	}
	for _, id := range applied {
		summary.Applied = append(summary.Applied, id.String())
	}
	for _, id := range skipped {
		summary.Skipped = append(summary.Skipped, id.String())
	}
	return summary
}
