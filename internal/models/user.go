package models

import (
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	FullName     string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	Phone        string
	PasswordHash string     `gorm:"not null"`
	Role         types.Role `gorm:"not null;index"`
	IsActive     bool       `gorm:"not null;default:true"`
}

func (u *User) Principal() types.Principal {
	return types.Principal{ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role}
}
