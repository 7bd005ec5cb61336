package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoleKey is the closed set of roles known to the platform.
type RoleKey uint8

const (
	RoleUnknown RoleKey = iota
	RoleSuperAdmin
	RoleAdminKota
	RoleKepalaDinas
	RoleStafDinas
	RoleCamat
	RoleStafKecamatan
	RoleLurah
	RoleStafKelurahan
	RoleVerifikator
	RoleTeknisiLapangan
	RoleMasyarakat
)

var roleNames = map[RoleKey]string{
	RoleSuperAdmin:      "super_admin",
	RoleAdminKota:       "admin_kota",
	RoleKepalaDinas:     "kepala_dinas",
	RoleStafDinas:       "staf_dinas",
	RoleCamat:           "camat",
	RoleStafKecamatan:   "staf_kecamatan",
	RoleLurah:           "lurah",
	RoleStafKelurahan:   "staf_kelurahan",
	RoleVerifikator:     "verifikator",
	RoleTeknisiLapangan: "teknisi_lapangan",
	RoleMasyarakat:      "masyarakat",
}

var roleLevels = map[RoleKey]int{
	RoleSuperAdmin:      100,
	RoleAdminKota:       90,
	RoleKepalaDinas:     70,
	RoleCamat:           70,
	RoleLurah:           60,
	RoleVerifikator:     50,
	RoleStafDinas:       40,
	RoleStafKecamatan:   40,
	RoleStafKelurahan:   30,
	RoleTeknisiLapangan: 30,
	RoleMasyarakat:      10,
}

func (r RoleKey) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Level is the fixed hierarchy level of the role. Unknown roles have level 0.
func (r RoleKey) Level() int {
	return roleLevels[r]
}

// ParseRole converts a role name ("camat", "lurah", ...) to its RoleKey.
func ParseRole(name string) (RoleKey, error) {
	for key, n := range roleNames {
		if n == name {
			return key, nil
		}
	}
	return RoleUnknown, fmt.Errorf("invalid role: %q", name)
}

// AllRoles returns every known role ordered by descending level.
func AllRoles() []RoleKey {
	return []RoleKey{
		RoleSuperAdmin, RoleAdminKota, RoleKepalaDinas, RoleCamat, RoleLurah,
		RoleVerifikator, RoleStafDinas, RoleStafKecamatan, RoleStafKelurahan,
		RoleTeknisiLapangan, RoleMasyarakat,
	}
}

// Role mirrors RoleKey in the roles table so that users.role_id stays a foreign key.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"size:50;unique;not null" json:"name"`
	Level       int       `gorm:"not null" json:"level"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relasi
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

// Key resolves the stored role name. Rows with unknown names resolve to RoleUnknown.
func (r Role) Key() RoleKey {
	key, err := ParseRole(r.Name)
	if err != nil {
		return RoleUnknown
	}
	return key
}
