package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AduanStatus string

const (
	StatusBaru         AduanStatus = "baru"
	StatusDiverifikasi AduanStatus = "diverifikasi"
	StatusDiproses     AduanStatus = "diproses"
	StatusSelesai      AduanStatus = "selesai"
	StatusDitolak      AduanStatus = "ditolak"
)

func (s AduanStatus) Terminal() bool {
	return s == StatusSelesai || s == StatusDitolak
}

func ParseStatus(s string) (AduanStatus, error) {
	switch st := AduanStatus(s); st {
	case StatusBaru, StatusDiverifikasi, StatusDiproses, StatusSelesai, StatusDitolak:
		return st, nil
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority: %q", s)
}

const (
	MinPhotos = 1
	MaxPhotos = 3
)

type Aduan struct {
	ID                uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NomorTiket        string      `gorm:"size:32;uniqueIndex;not null" json:"nomor_tiket"`
	UserID            uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Category          string      `gorm:"size:50;not null" json:"category"`
	Description       string      `gorm:"type:text;not null" json:"description"`
	Latitude          float64     `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude         float64     `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Address           string      `gorm:"type:text" json:"address,omitempty"`
	Status            AduanStatus `gorm:"size:20;not null;default:'baru';index" json:"status"`
	Priority          Priority    `gorm:"size:10;not null;default:'medium'" json:"priority"`
	Progress          int         `gorm:"not null;default:0" json:"progress"`
	DinasID           *uint       `gorm:"index" json:"dinas_id,omitempty"`
	StaffID           *uuid.UUID  `gorm:"type:uuid;index" json:"staff_id,omitempty"`
	OrganizationID    *uint       `gorm:"index" json:"organization_id,omitempty"`
	AdminNotes        string      `gorm:"type:text" json:"admin_notes,omitempty"`
	VerificationNotes string      `gorm:"type:text" json:"verification_notes,omitempty"`
	RejectionReason   string      `gorm:"type:text" json:"rejection_reason,omitempty"`
	VerifiedBy        *uuid.UUID  `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt        *time.Time  `json:"verified_at,omitempty"`
	RejectedAt        *time.Time  `json:"rejected_at,omitempty"`
	ProcessedAt       *time.Time  `json:"processed_at,omitempty"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	RowVersion        int64       `gorm:"not null;default:1" json:"row_version"`
	CreatedAt         time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Parent of OrganizationID, resolved by join. Not a column.
	OrganizationParentID *uint `gorm:"-" json:"-"`
}

func (Aduan) TableName() string {
	return "aduan"
}

// AduanHistory is append-only: rows are inserted with the transition that produced them and never updated.
type AduanHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AduanID   uuid.UUID `gorm:"type:uuid;not null;index" json:"aduan_id"`
	Action    string    `gorm:"size:30;not null" json:"action"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	OldValue  string    `gorm:"type:text" json:"old_value"`
	NewValue  string    `gorm:"type:text" json:"new_value"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	UserName string `gorm:"-" json:"user_name,omitempty"`
}

func (AduanHistory) TableName() string {
	return "aduan_history"
}

// Photo metadata lives in MongoDB; the file itself lives under UPLOAD_DIR.
type Photo struct {
	AduanID    string    `bson:"aduanId" json:"aduan_id"`
	FileName   string    `bson:"fileName" json:"file_name"`
	FileURL    string    `bson:"fileUrl" json:"file_url"`
	FileType   string    `bson:"fileType" json:"file_type"`
	Size       int64     `bson:"size" json:"size"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploaded_at"`
}

type CreateAduanRequest struct {
	Category    string   `form:"category" json:"category" validate:"required,max=50"`
	Description string   `form:"description" json:"description" validate:"required,min=10"`
	Latitude    *float64 `form:"latitude" json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `form:"longitude" json:"longitude" validate:"required,longitude"`
	Address     string   `form:"address" json:"address" validate:"omitempty,max=255"`
}

type UpdateAduanRequest struct {
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=10"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=255"`
}

type VerifyRequest struct {
	Notes string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type AssignRequest struct {
	Type    string     `json:"type" validate:"required,oneof=dinas staff"`
	DinasID *uint      `json:"dinas_id" validate:"required_if=Type dinas"`
	StaffID *uuid.UUID `json:"staff_id" validate:"required_if=Type staff"`
	Notes   string     `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=diproses selesai"`
	Notes  string `json:"notes"`
}

type PriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high urgent"`
	Notes    string `json:"notes"`
}

type ProgressRequest struct {
	Progress *int   `json:"progress" validate:"required"`
	Notes    string `json:"notes"`
}

type NoteRequest struct {
	Notes string `json:"notes" validate:"required"`
}

type AduanFilter struct {
	Status   string
	Priority string
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

type AduanResponse struct {
	Aduan
	Photos []Photo `json:"photos"`
}
