package model

import (
	"time"
)

type User struct {
	ID        string  `gorm:"primaryKey;type:char(36)"`
	FirstName *string `gorm:"type:varchar(50)"`
	LastName  *string `gorm:"type:varchar(50)"`
	Username  string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_username"`
	Email     string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_email"`
	Password  string  `gorm:"type:varchar(255);not null"`
	Avatar    *string `gorm:"type:varchar(255)"`
	Banner    *string `gorm:"type:varchar(255)"`
	Bio       *string `gorm:"type:varchar(500)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
