// Package repo – SQLite chat state
//
// SQLiteChatState keeps the last Telegram chat id in a single-row table
// (chat_state, id = 1). Writes are upserts so the row is created on first use
// and overwritten afterwards.
//
// Error semantics:
//   - A missing row is not an error: LastChatID reports ok=false.
//   - Any other gorm error is propagated unchanged.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-notify-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// SQLiteChatState is the GORM-backed chat-state gateway.
type SQLiteChatState struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewSQLiteChatState returns a gateway over db. The schema must be migrated.
func NewSQLiteChatState(db *gorm.DB) *SQLiteChatState {
	return &SQLiteChatState{DB: db, now: time.Now}
}

// LastChatID returns the stored chat id, or ok=false when none was captured.
func (r *SQLiteChatState) LastChatID(ctx context.Context) (int64, bool, error) {
	var row domain.ChatState
	err := r.DB.WithContext(ctx).
		Where("id = ?", domain.ChatStateSingletonID).
		Take(&row).Error
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.LastChatID, true, nil
}

// SetLastChatID stores id, replacing any previous value.
func (r *SQLiteChatState) SetLastChatID(ctx context.Context, id int64) error {
	row := domain.ChatState{
		ID:         domain.ChatStateSingletonID,
		LastChatID: id,
		UpdatedAt:  r.clock().UTC(),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_chat_id", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *SQLiteChatState) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}
