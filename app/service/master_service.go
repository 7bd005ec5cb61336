package service

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"fiber/responta/app/model"
	"fiber/responta/app/repo"
	"fiber/responta/apperror"
)

// MasterService serves the reference data used by assignment pickers.
type MasterService struct {
	orgRepo  repo.OrganizationRepository
	userRepo repo.UserRepository
}

func NewMasterService(orgRepo repo.OrganizationRepository, userRepo repo.UserRepository) *MasterService {
	return &MasterService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

// GET /api/v1/organizations?type=kecamatan
func (s *MasterService) Organizations(c *fiber.Ctx) error {
	typ := model.OrganizationType(c.Query("type"))
	switch typ {
	case "", model.OrgKota, model.OrgKecamatan, model.OrgKelurahan, model.OrgDinas:
	default:
		return apperror.Respond(c, apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "Tipe organisasi tidak valid"))
	}

	orgs, err := s.orgRepo.FindAll(c.UserContext(), typ)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(model.SuccessResponse[[]model.Organization]{
		Success: true,
		Data:    orgs,
	})
}

// GET /api/v1/dinas
func (s *MasterService) Dinas(c *fiber.Ctx) error {
	dinas, err := s.orgRepo.ListDinas(c.UserContext())
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(model.SuccessResponse[[]model.Dinas]{
		Success: true,
		Data:    dinas,
	})
}

// GET /api/v1/dinas/:id/staff
func (s *MasterService) DinasStaff(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "id dinas tidak valid"))
	}

	if _, err := s.orgRepo.FindDinas(c.UserContext(), uint(id)); err != nil {
		return apperror.Respond(c, err)
	}

	users, err := s.userRepo.ListStaffByDinas(c.UserContext(), uint(id))
	if err != nil {
		return apperror.Respond(c, err)
	}

	staff := make([]model.StaffResponse, 0, len(users))
	for _, u := range users {
		staff = append(staff, model.StaffResponse{
			ID:       u.ID,
			FullName: u.FullName,
			Role:     u.Role.Name,
			IsActive: u.IsActive,
		})
	}
	return c.JSON(model.SuccessResponse[[]model.StaffResponse]{
		Success: true,
		Data:    staff,
	})
}
