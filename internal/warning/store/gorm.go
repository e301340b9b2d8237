package store

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockledger/internal/clock"
	"github.com/smallbiznis/stockledger/internal/warning/domain"
	"github.com/smallbiznis/stockledger/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps acknowledgements in user_warnings. It joins the
// transaction bound to ctx, so a rolled back posting forgets its warnings.
type GormStore struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewGormStore(conn *gorm.DB, genID *snowflake.Node, clk clock.Clock) *GormStore {
	return &GormStore{db: conn, genID: genID, clock: clk}
}

func (s *GormStore) Acknowledge(ctx context.Context, sessionID string, w domain.Warning, ttl time.Duration) (bool, error) {
	if sessionID == "" {
		return false, domain.ErrInvalidSession
	}
	if w.Key == "" {
		return false, domain.ErrInvalidWarning
	}

	now := s.clock.Now().UTC()
	conn := db.Conn(ctx, s.db)

	if err := conn.
		Where("session_id = ? AND warning_key = ? AND expires_at <= ?", sessionID, w.Key, now).
		Delete(&domain.Acknowledgement{}).Error; err != nil {
		return false, err
	}

	ack := domain.Acknowledgement{
		ID:        s.genID.Generate(),
		SessionID: sessionID,
		Key:       w.Key,
		Name:      w.Name,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	result := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&ack)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
