package models

import (
	"strings"
	"time"
)

// Client представляет клиента пользователя
type Client struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"column:user_id;not null;index" json:"userId"`
	Name        string    `gorm:"column:name;not null;size:150" json:"name"`
	ContactName string    `gorm:"column:contact_name;size:100" json:"contactName"`
	Email       string    `gorm:"column:email;size:100" json:"email"`
	Phone       string    `gorm:"column:phone;size:30" json:"phone"`
	Address     string    `gorm:"column:address;size:255" json:"address"`
	VATNumber   string    `gorm:"column:vat_number;size:50" json:"vatNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Client) TableName() string {
	return "clients"
}

// HasContactEmail сообщает, можно ли отправить клиенту письмо
func (c *Client) HasContactEmail() bool {
	return c != nil && strings.TrimSpace(c.Email) != ""
}
