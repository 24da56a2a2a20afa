package repository

import (
	"context"

	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/snapshot/domain"
	pkgdb "github.com/smallbiznis/settletrace/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ArchiveRecord) error {
	err := db.WithContext(ctx).Exec(
		`INSERT INTO trace_snapshots (id, taken_at, document) VALUES (?, ?, ?)`,
		record.ID,
		record.TakenAt,
		record.Document,
	).Error
	if pkgdb.IsDuplicateKeyErr(err) {
		return entity.DuplicateID("snapshot", record.ID.String())
	}
	return err
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB) (*domain.ArchiveRecord, error) {
	var record domain.ArchiveRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, taken_at, document FROM trace_snapshots
		 ORDER BY taken_at DESC, id DESC LIMIT 1`,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}
