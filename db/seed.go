package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fiber/responta/app/model"
	"fiber/responta/config"
	"fiber/responta/helper"
)

var roleDescriptions = map[model.RoleKey]string{
	model.RoleSuperAdmin:      "Pengelola seluruh sistem",
	model.RoleAdminKota:       "Admin pemerintah kota",
	model.RoleKepalaDinas:     "Kepala dinas",
	model.RoleStafDinas:       "Staf dinas",
	model.RoleCamat:           "Camat",
	model.RoleStafKecamatan:   "Staf kecamatan",
	model.RoleLurah:           "Lurah",
	model.RoleStafKelurahan:   "Staf kelurahan",
	model.RoleVerifikator:     "Verifikator aduan",
	model.RoleTeknisiLapangan: "Teknisi lapangan",
	model.RoleMasyarakat:      "Warga pelapor",
}

type orgSeed struct {
	code     string
	name     string
	typ      model.OrganizationType
	parent   string
	children []orgSeed
}

var orgTree = orgSeed{
	code: "KOTA", name: "Pemerintah Kota", typ: model.OrgKota,
	children: []orgSeed{
		{code: "KEC-UTR", name: "Kecamatan Utara", typ: model.OrgKecamatan, children: []orgSeed{
			{code: "KEL-UTR-1", name: "Kelurahan Utara Satu", typ: model.OrgKelurahan},
			{code: "KEL-UTR-2", name: "Kelurahan Utara Dua", typ: model.OrgKelurahan},
		}},
		{code: "KEC-SEL", name: "Kecamatan Selatan", typ: model.OrgKecamatan, children: []orgSeed{
			{code: "KEL-SEL-1", name: "Kelurahan Selatan Satu", typ: model.OrgKelurahan},
			{code: "KEL-SEL-2", name: "Kelurahan Selatan Dua", typ: model.OrgKelurahan},
		}},
	},
}

var dinasSeeds = []struct{ code, name string }{
	{"DPU", "Dinas Pekerjaan Umum"},
	{"DLH", "Dinas Lingkungan Hidup"},
	{"DISHUB", "Dinas Perhubungan"},
}

// Seed is idempotent: rows are matched on their unique name or code.
func Seed() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := seedRoles(tx); err != nil {
			return err
		}
		if _, err := seedOrg(tx, orgTree, nil); err != nil {
			return err
		}
		if err := seedDinas(tx); err != nil {
			return err
		}
		return seedSuperAdmin(tx)
	})
}

func seedRoles(tx *gorm.DB) error {
	for _, key := range model.AllRoles() {
		role := model.Role{}
		err := tx.Where(model.Role{Name: key.String()}).
			Attrs(model.Role{Level: key.Level(), Description: roleDescriptions[key]}).
			FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", key, err)
		}
	}
	return nil
}

func seedOrg(tx *gorm.DB, node orgSeed, parentID *uint) (uint, error) {
	org := model.Organization{}
	err := tx.Where(model.Organization{Code: node.code}).
		Attrs(model.Organization{Name: node.name, Type: node.typ, ParentID: parentID}).
		FirstOrCreate(&org).Error
	if err != nil {
		return 0, fmt.Errorf("seed organization %s: %w", node.code, err)
	}
	for _, child := range node.children {
		id := org.ID
		if _, err := seedOrg(tx, child, &id); err != nil {
			return 0, err
		}
	}
	return org.ID, nil
}

func seedDinas(tx *gorm.DB) error {
	for _, d := range dinasSeeds {
		orgID, err := seedOrg(tx, orgSeed{code: "ORG-" + d.code, name: d.name, typ: model.OrgDinas}, nil)
		if err != nil {
			return err
		}
		dinas := model.Dinas{}
		err = tx.Where(model.Dinas{Code: d.code}).
			Attrs(model.Dinas{Name: d.name, OrganizationID: orgID}).
			FirstOrCreate(&dinas).Error
		if err != nil {
			return fmt.Errorf("seed dinas %s: %w", d.code, err)
		}
	}
	return nil
}

func seedSuperAdmin(tx *gorm.DB) error {
	var existing model.User
	err := tx.Where("username = ?", "superadmin").First(&existing).Error
	if err == nil {
		config.Log.Info("Super admin already exists, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if config.Env.SeedAdminPassword == "" {
		return errors.New("SEED_ADMIN_PASSWORD wajib diisi untuk membuat super admin")
	}
	hash, err := helper.HashPassword(config.Env.SeedAdminPassword)
	if err != nil {
		return err
	}

	var role model.Role
	if err := tx.Where("name = ?", model.RoleSuperAdmin.String()).First(&role).Error; err != nil {
		return err
	}

	admin := model.User{
		Username:     "superadmin",
		Email:        "superadmin@responta.local",
		PasswordHash: hash,
		FullName:     "Super Admin",
		RoleID:       &role.ID,
		IsActive:     true,
	}
	if err := tx.Omit("Role", "Organization", "Dinas").Create(&admin).Error; err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}
	config.Log.WithField("username", admin.Username).Info("Super admin created")
	return nil
}
