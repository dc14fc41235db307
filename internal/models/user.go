package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

type User struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"not null;default:'customer'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
