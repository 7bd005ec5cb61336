package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username       string     `gorm:"size:50;unique;not null" json:"username"`
	Email          string     `gorm:"size:100;unique;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	FullName       string     `gorm:"size:100;not null" json:"full_name"`
	Phone          string     `gorm:"size:20" json:"phone"`
	RoleID         *uuid.UUID `gorm:"type:uuid" json:"role_id"`
	OrganizationID *uint      `json:"organization_id"`
	DinasID        *uint      `json:"dinas_id"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	CreatedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relasi
	Role         Role          `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Dinas        *Dinas        `gorm:"foreignKey:DinasID" json:"dinas,omitempty"`
}

// Actor is the authorization view of a user: everything policy decisions need and nothing else.
type Actor struct {
	ID             uuid.UUID
	Role           RoleKey
	OrganizationID *uint
	DinasID        *uint
	Active         bool
}

func (u User) Actor() Actor {
	return Actor{
		ID:             u.ID,
		Role:           u.Role.Key(),
		OrganizationID: u.OrganizationID,
		DinasID:        u.DinasID,
		Active:         u.IsActive,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	FullName       string `json:"full_name" validate:"required"`
	Phone          string `json:"phone" validate:"omitempty,max=20"`
	Role           string `json:"role" validate:"required,oneof=super_admin admin_kota kepala_dinas staf_dinas camat staf_kecamatan lurah staf_kelurahan verifikator teknisi_lapangan masyarakat"`
	OrganizationID *uint  `json:"organization_id"`
	DinasID        *uint  `json:"dinas_id"`
}

type UpdateUserRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type ActivateUserRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type LoginUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	Role           string `json:"role"`
	OrganizationID *uint  `json:"organizationId,omitempty"`
	DinasID        *uint  `json:"dinasId,omitempty"`
}

type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	Role           string    `json:"role"`
	OrganizationID *uint     `json:"organization_id,omitempty"`
	DinasID        *uint     `json:"dinas_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u User) Response() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Phone:          u.Phone,
		Role:           u.Role.Name,
		OrganizationID: u.OrganizationID,
		DinasID:        u.DinasID,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}

type ProfileData struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	OrganizationID *uint  `json:"organization_id,omitempty"`
	DinasID        *uint  `json:"dinas_id,omitempty"`
}

type JWTClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Type     string    `json:"type"`
	jwt.RegisteredClaims
}

type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}
