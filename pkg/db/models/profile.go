package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the user-editable account attributes, keyed by the auth user id.
type Profile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"column:email;type:text" json:"email"`
	DisplayName string    `gorm:"column:display_name;type:text" json:"display_name"`
	FullName    string    `gorm:"column:full_name;type:text" json:"full_name"`
	Phone       string    `gorm:"column:phone;type:text" json:"phone"`
	AvatarURL   string    `gorm:"column:avatar_url;type:text" json:"avatar_url"`
	DateOfBirth string    `gorm:"column:date_of_birth;type:text" json:"date_of_birth"`
	Gender      string    `gorm:"column:gender;type:text" json:"gender"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
