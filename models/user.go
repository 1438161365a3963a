package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string    `gorm:"column:first_name;not null;size:50" json:"firstName"`
	LastName  string    `gorm:"column:last_name;not null;size:50" json:"lastName"`
	Email     string    `gorm:"column:email;uniqueIndex;not null;size:100" json:"email"`
	Password  string    `gorm:"column:password;not null;size:100" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	return u.validate()
}

func (u *User) validate() error {
	if len(strings.TrimSpace(u.FirstName)) < 1 || len(u.FirstName) > 50 {
		return errors.New("first name must be between 1 and 50 characters")
	}
	if len(strings.TrimSpace(u.LastName)) < 1 || len(u.LastName) > 50 {
		return errors.New("last name must be between 1 and 50 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	return nil
}
