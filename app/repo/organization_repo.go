package repo

import (
	"context"

	"gorm.io/gorm"

	"fiber/responta/app/model"
)

type OrganizationRepository interface {
	FindAll(ctx context.Context, typ model.OrganizationType) ([]model.Organization, error)
	FindByID(ctx context.Context, id uint) (*model.Organization, error)
	ListDinas(ctx context.Context) ([]model.Dinas, error)
	FindDinas(ctx context.Context, id uint) (*model.Dinas, error)
	DinasExists(ctx context.Context, id uint) (bool, error)
}

type OrganizationRepo struct {
	DB *gorm.DB
}

func NewOrganizationRepo(db *gorm.DB) *OrganizationRepo {
	return &OrganizationRepo{
		DB: db,
	}
}

func (r *OrganizationRepo) FindAll(ctx context.Context, typ model.OrganizationType) ([]model.Organization, error) {
	var orgs []model.Organization
	q := r.DB.WithContext(ctx).Order("type ASC").Order("name ASC")
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	if err := q.Find(&orgs).Error; err != nil {
		return nil, translate(err, "Organisasi tidak ditemukan")
	}
	return orgs, nil
}

func (r *OrganizationRepo) FindByID(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	err := r.DB.WithContext(ctx).Preload("Parent").Where("id = ?", id).First(&org).Error
	if err != nil {
		return nil, translateGorm(err, "Organisasi tidak ditemukan")
	}
	return &org, nil
}

func (r *OrganizationRepo) ListDinas(ctx context.Context) ([]model.Dinas, error) {
	var dinas []model.Dinas
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&dinas).Error; err != nil {
		return nil, translate(err, "Dinas tidak ditemukan")
	}
	return dinas, nil
}

func (r *OrganizationRepo) FindDinas(ctx context.Context, id uint) (*model.Dinas, error) {
	var dinas model.Dinas
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&dinas).Error
	if err != nil {
		return nil, translateGorm(err, "Dinas tidak ditemukan")
	}
	return &dinas, nil
}

func (r *OrganizationRepo) DinasExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&model.Dinas{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, "Dinas tidak ditemukan")
	}
	return count > 0, nil
}
