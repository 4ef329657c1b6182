package model

import (
	"time"
)

type User struct {
	ID        uint64 `gorm:"primaryKey"`
	Nickname  string `gorm:"type:varchar(50);not null"`
	AvatarURL string `gorm:"type:varchar(255)"`
	IsBan     bool   `gorm:"type:tinyint(1);default:0"`
	IsDelete  bool   `gorm:"type:tinyint(1);default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
