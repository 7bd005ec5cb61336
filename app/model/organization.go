package model

import (
	"time"

	"github.com/google/uuid"
)

type OrganizationType string

const (
	OrgKota      OrganizationType = "kota"
	OrgKecamatan OrganizationType = "kecamatan"
	OrgKelurahan OrganizationType = "kelurahan"
	OrgDinas     OrganizationType = "dinas"
)

// Organization is a node of the administrative tree (kota > kecamatan > kelurahan).
// Dinas nodes hang off the tree independently.
type Organization struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Name      string           `gorm:"size:150;not null" json:"name"`
	Code      string           `gorm:"size:30;unique" json:"code"`
	Type      OrganizationType `gorm:"size:20;not null;index" json:"type"`
	ParentID  *uint            `gorm:"index" json:"parent_id"`
	CreatedAt time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relasi
	Parent *Organization `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}

type Dinas struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Code           string    `gorm:"size:30;unique" json:"code"`
	OrganizationID uint      `gorm:"uniqueIndex;not null" json:"organization_id"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relasi
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Dinas) TableName() string {
	return "dinas"
}

type StaffResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}
