package models

import (
	"time"

	"github.com/invoicing/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Email           string        `gorm:"type:varchar(254);not null;uniqueIndex"`
	Phone           string        `gorm:"type:varchar(32);index"`
	FirstName       string        `gorm:"type:varchar(100)"`
	LastName        string        `gorm:"type:varchar(100)"`
	Role            identity.Role `gorm:"type:varchar(16);not null"`
	PasswordHash    string        `gorm:"type:varchar(255)"`
	LastLogin       *time.Time
	EmailCode       *string `gorm:"type:varchar(64);index"`
	PhoneCode       *string `gorm:"type:varchar(16);index"`
	PasswordCode    *string `gorm:"type:varchar(64);index"`
	IsEmailVerified bool    `gorm:"not null;default:false"`
	IsPhoneVerified bool    `gorm:"not null;default:false"`
	IsActive        bool    `gorm:"not null;default:false"`
	IsOnboarded     bool    `gorm:"not null;default:false"`
	IsSuperuser     bool    `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:      m.BaseModel.ToDomain(),
		Email:           m.Email,
		Phone:           m.Phone,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Role:            m.Role,
		PasswordHash:    m.PasswordHash,
		LastLogin:       m.LastLogin,
		EmailCode:       m.EmailCode,
		PhoneCode:       m.PhoneCode,
		PasswordCode:    m.PasswordCode,
		IsEmailVerified: m.IsEmailVerified,
		IsPhoneVerified: m.IsPhoneVerified,
		IsActive:        m.IsActive,
		IsOnboarded:     m.IsOnboarded,
		IsSuperuser:     m.IsSuperuser,
	}
}

// UserModelFromDomain creates a persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:           u.Email,
		Phone:           u.Phone,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		PasswordHash:    u.PasswordHash,
		LastLogin:       u.LastLogin,
		EmailCode:       u.EmailCode,
		PhoneCode:       u.PhoneCode,
		PasswordCode:    u.PasswordCode,
		IsEmailVerified: u.IsEmailVerified,
		IsPhoneVerified: u.IsPhoneVerified,
		IsActive:        u.IsActive,
		IsOnboarded:     u.IsOnboarded,
		IsSuperuser:     u.IsSuperuser,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
