package db

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salesinsight/internal/dataset"
)

const batchSize = 500

// MirrorSnapshot writes every record and session summary of snap into the
// database in one transaction. Writing the same snapshot twice is a no-op.
func MirrorSnapshot(db *gorm.DB, snap *dataset.Snapshot) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&SessionSummary{}).Where("snapshot_id = ?", snap.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		if events := toAccessEvents(snap); len(events) > 0 {
			if err := tx.CreateInBatches(&events, batchSize).Error; err != nil {
				return fmt.Errorf("mirror access events: %w", err)
			}
		}
		if summaries := toSessionSummaries(snap); len(summaries) > 0 {
			if err := tx.CreateInBatches(&summaries, batchSize).Error; err != nil {
				return fmt.Errorf("mirror session summaries: %w", err)
			}
		}
		return nil
	})
}

func toAccessEvents(snap *dataset.Snapshot) []AccessEvent {
	out := make([]AccessEvent, 0, len(snap.Records))
	for _, r := range snap.Records {
		out = append(out, AccessEvent{
			SnapshotID:  snap.ID,
			Timestamp:   r.Timestamp,
			IPAddress:   r.IPAddress,
			Method:      r.Method,
			Page:        r.Page,
			StatusCode:  r.StatusCode,
			Country:     r.Country,
			JobType:     r.JobType,
			RequestType: r.RequestType,
			SessionID:   r.SessionID,
			Attributes: datatypes.JSONMap{
				"hour":              r.Hour,
				"week":              r.Week,
				"product_name":      r.ProductName,
				"pages_per_session": r.PagesPerSession,
				"session_duration":  r.SessionDuration,
			},
		})
	}
	return out
}

func toSessionSummaries(snap *dataset.Snapshot) []SessionSummary {
	out := make([]SessionSummary, 0, len(snap.Sessions))
	for _, s := range snap.Sessions {
		out = append(out, SessionSummary{
			SnapshotID:      snap.ID,
			SessionID:       s.SessionID,
			IPAddress:       s.IPAddress,
			Seq:             s.Seq,
			StartedAt:       s.Start,
			EndedAt:         s.End,
			Events:          s.Events,
			DistinctPages:   s.DistinctPages,
			DurationMinutes: s.DurationMinutes,
		})
	}
	return out
}
