package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oni-tag/game-backend/internal/store"
)

// DB backs the stats store with a relational database for deployments that
// want career records to outlive the key-value store.
type DB struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDB(db *gorm.DB) (*DB, error) {
	if err := db.AutoMigrate(&PlayerStats{}); err != nil {
		return nil, fmt.Errorf("migrate player stats: %w", err)
	}
	return &DB{db: db, now: time.Now}, nil
}

func (d *DB) Apply(ctx context.Context, userID string, delta Delta) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ps PlayerStats
		err := tx.Where("user_id = ?", userID).First(&ps).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ps = PlayerStats{UserID: userID}
		} else if err != nil {
			return fmt.Errorf("load stats for %s: %w", userID, err)
		}

		ps.apply(delta, d.now())
		return tx.Save(&ps).Error
	})
}

func (d *DB) Get(ctx context.Context, userID string) (PlayerStats, error) {
	var ps PlayerStats
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&ps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PlayerStats{}, store.ErrNotFound
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("load stats for %s: %w", userID, err)
	}
	return ps, nil
}
