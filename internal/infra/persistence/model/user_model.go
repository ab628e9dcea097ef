package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. Authentication only reads it; account
// management owns the writes.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Username     string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash string    `gorm:"column:password;type:varchar(255);not null"`
	Salt         string    `gorm:"type:varchar(255);not null"`
	DisplayName  string    `gorm:"type:varchar(255)"`
	Status       string    `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
