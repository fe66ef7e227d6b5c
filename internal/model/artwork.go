package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Artwork is the core listing entity. CreatedBy is stamped once at creation
// and never changes; ownership checks rely on it.
type Artwork struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Title          string          `json:"title" gorm:"size:255;not null;index"`
	Description    string          `json:"description" gorm:"type:text"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	Location       string          `json:"location" gorm:"size:255;index"`
	Avatar         string          `json:"avatar,omitempty" gorm:"size:512"`
	AvatarPublicID string          `json:"avatarPublicId,omitempty" gorm:"size:255"`
	CreatedBy      uuid.UUID       `json:"createdBy" gorm:"type:char(36);not null;index"`
	CreatedByName  string          `json:"createdByName" gorm:"size:255"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Artwork) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
