package event

import "time"

// Snapshot represents the valid records of one run
type Snapshot struct {
	Records   map[string]*Record `json:"records"`    // keyed by Record.ID
	Order     []string           `json:"order"`      // record IDs in ranked order
	UpdatedAt string             `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records: make(map[string]*Record),
		Order:   make([]string, 0),
	}
}

// CreateSnapshot creates a snapshot from a list of records
func CreateSnapshot(records []*Record, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt

	for _, rec := range records {
		if _, exists := snap.Records[rec.ID]; exists {
			continue
		}
		snap.Records[rec.ID] = rec
		snap.Order = append(snap.Order, rec.ID)
	}

	return snap
}

// DiffResult contains the results of comparing a run against a snapshot
type DiffResult struct {
	NewRecords []*Record
	BySource   map[string][]*Record // new records grouped by source
}

// Diff returns the current records that are not in the previous snapshot.
// New records keep their order in current.
func Diff(previous *Snapshot, current []*Record) *DiffResult {
	result := &DiffResult{
		NewRecords: make([]*Record, 0),
		BySource:   make(map[string][]*Record),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, rec := range current {
		if _, exists := previous.Records[rec.ID]; exists {
			continue
		}
		result.NewRecords = append(result.NewRecords, rec)
		result.BySource[rec.Source] = append(result.BySource[rec.Source], rec)
	}

	return result
}

// RecordChange represents a change detected in a record between runs
type RecordChange struct {
	RecordID   string    `json:"record_id"`
	Name       string    `json:"name"`
	ChangeType string    `json:"change_type"` // "new", "date", "venue", "source"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two versions of a record and returns detected changes
func DetectChanges(previous, current *Record) []*RecordChange {
	now := time.Now().UTC()

	if previous == nil {
		return []*RecordChange{
			{
				RecordID:   current.ID,
				Name:       current.Name,
				ChangeType: "new",
				NewValue:   current.Name,
				DetectedAt: now,
			},
		}
	}

	var changes []*RecordChange
	fields := []struct {
		kind          string
		before, after string
	}{
		{"date", previous.Date, current.Date},
		{"venue", previous.Venue, current.Venue},
		{"source", previous.Source, current.Source},
	}
	for _, f := range fields {
		if f.before == f.after {
			continue
		}
		changes = append(changes, &RecordChange{
			RecordID:   current.ID,
			Name:       current.Name,
			ChangeType: f.kind,
			OldValue:   f.before,
			NewValue:   f.after,
			DetectedAt: now,
		})
	}

	return changes
}

// CompareSnapshots returns every change between a previous snapshot and the
// current records, in current order
func CompareSnapshots(previous *Snapshot, current []*Record) []*RecordChange {
	if previous == nil {
		previous = NewSnapshot()
	}

	var all []*RecordChange
	for _, rec := range current {
		all = append(all, DetectChanges(previous.Records[rec.ID], rec)...)
	}
	return all
}
