package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	entity "github.com/smallbiznis/settletrace/internal/entity/domain"
	"github.com/smallbiznis/settletrace/internal/relationship"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is the serialized state of the store and the index. Entities are
// keyed by ID and edges carry ordered lists, so marshaling the same state
// always yields the same bytes.
type Document struct {
	Entities      Entities           `json:"entities"`
	Relationships relationship.Edges `json:"relationships"`
}

type Entities struct {
	Orders           map[string]entity.Order           `json:"orders"`
	Payments         map[string]entity.Payment         `json:"payments"`
	EnterpriseTotals map[string]entity.EnterpriseTotal `json:"enterprise_totals"`
	TotalAmounts     map[string]entity.TotalAmount     `json:"total_amounts"`
}

// ArchiveRecord is a snapshot persisted for later restore.
type ArchiveRecord struct {
	ID       snowflake.ID   `gorm:"primaryKey" json:"id"`
	TakenAt  time.Time      `json:"taken_at"`
	Document datatypes.JSON `json:"document"`
}

func (ArchiveRecord) TableName() string {
	return "trace_snapshots"
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ArchiveRecord) error
	FindLatest(ctx context.Context, db *gorm.DB) (*ArchiveRecord, error)
}

type Service interface {
	Capture(ctx context.Context) (Document, error)
	Serialize(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, doc Document) error
	Archive(ctx context.Context) (*ArchiveRecord, error)
	RestoreLatest(ctx context.Context) error
}
