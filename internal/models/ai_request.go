package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIRequest is an append-only audit row for one language-model call.
// Rows are written for auditing and never read back by the application.
type AIRequest struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	RequestText  string    `gorm:"type:text" json:"request_text"`
	ResponseText string    `gorm:"type:text" json:"response_text"`
}

func (r *AIRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
