package db

import (
	"gorm.io/gorm"
)

// PruneSnapshots deletes mirrored rows of every snapshot other than keepID.
// It returns the number of access events removed.
func PruneSnapshots(db *gorm.DB, keepID string) (int64, error) {
	var removed int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("snapshot_id <> ?", keepID).Delete(&AccessEvent{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Where("snapshot_id <> ?", keepID).Delete(&SessionSummary{}).Error
	})
	return removed, err
}
