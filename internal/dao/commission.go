package dao

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"server-invest-app/internal/db"
	"server-invest-app/internal/model"
)

type commissionLevel struct {
}

var CommissionLevel = new(commissionLevel)

func (*commissionLevel) List(ctx context.Context) ([]model.CommissionLevel, error) {
	levels := make([]model.CommissionLevel, 0)
	err := db.GormCli.WithContext(ctx).Order("level").Find(&levels).Error
	return levels, err
}

// Save upserts the given levels keyed by level. Rewriting a level with its
// current percentage is not a conflict.
func (*commissionLevel) Save(ctx context.Context, levels []model.CommissionLevel) error {
	if len(levels) == 0 {
		return nil
	}
	now := time.Now()
	for i := range levels {
		levels[i].UpdatedAt = now
	}
	return db.GormCli.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "level"}},
			DoUpdates: clause.AssignmentColumns([]string{"percentage", "updated_at"}),
		}).
		Create(&levels).Error
}
