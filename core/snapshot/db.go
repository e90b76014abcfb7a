package snapshot

import (
	"context"
	"time"

	"livesync/core/errors"

	"gorm.io/gorm"
)

// row is the GORM model of a persisted entry.
type row struct {
	ID          uint   `gorm:"primaryKey"`
	Seq         int    `gorm:"index"`
	Name        string `gorm:"size:191"`
	Kind        string `gorm:"size:16"`
	Publication string `gorm:"size:191"`
	Diff        []byte
	CreatedAt   time.Time
}

func (row) TableName() string { return "replica_snapshots" }

// DBStore keeps snapshots in the replica_snapshots table.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore returns a store over db.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Migrate creates or updates the snapshot table.
func (s *DBStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&row{}); err != nil {
		return errors.Wrap(err, "failed to migrate replica_snapshots")
	}
	return nil
}

// Save replaces every stored entry in one transaction.
func (s *DBStore) Save(ctx context.Context, entries []Entry) error {
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = row{Seq: e.Seq, Name: e.Name, Kind: e.Kind, Publication: e.Publication, Diff: e.Diff}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&row{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return errors.Wrap(err, "failed to save snapshots")
	}
	return nil
}

// Load returns the stored entries ordered by seq.
func (s *DBStore) Load(ctx context.Context) ([]Entry, error) {
	var rows []row
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load snapshots")
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Seq: r.Seq, Name: r.Name, Kind: r.Kind, Publication: r.Publication, Diff: r.Diff}
	}
	return entries, nil
}

// Clear deletes every stored entry.
func (s *DBStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&row{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear snapshots")
	}
	return nil
}
