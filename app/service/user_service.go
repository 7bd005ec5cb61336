package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/app/repo"
	"fiber/responta/apperror"
	"fiber/responta/config"
	"fiber/responta/helper"
)

type UserService struct {
	userRepo repo.UserRepository
	orgRepo  repo.OrganizationRepository
	policy   policy.Engine
}

func NewUserService(userRepo repo.UserRepository, orgRepo repo.OrganizationRepository, engine policy.Engine) *UserService {
	return &UserService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		policy:   engine,
	}
}

// GET /api/v1/users
func (s *UserService) GetAllUsers(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	dinasID, err := s.policy.UserListDinas(actor)
	if err != nil {
		return apperror.Respond(c, err)
	}

	q := parseListQuery(c)
	users, total, err := s.userRepo.FindAll(c.UserContext(), dinasID, q.Page, q.Limit, q.Search, q.SortBy, q.Order)
	if err != nil {
		return apperror.Respond(c, err)
	}

	userResponses := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		userResponses = append(userResponses, u.Response())
	}

	return c.JSON(model.SuccessResponse[model.PaginationData[model.UserResponse]]{
		Success: true,
		Data: model.PaginationData[model.UserResponse]{
			Items: userResponses,
			Meta:  q.meta(total),
		},
	})
}

// GET /api/v1/users/:id
func (s *UserService) GetUser(c *fiber.Ctx) error {
	_, user, err := s.loadTarget(c, policy.ActionViewUser)
	if err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Data:    user.Response(),
	})
}

// POST /api/v1/users
func (s *UserService) CreateUser(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	var req model.CreateUserRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	roleKey, err := model.ParseRole(req.Role)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Role tidak valid: "+req.Role, err))
	}

	target := &policy.UserTarget{Role: roleKey, DinasID: req.DinasID, Active: true}
	if err := s.policy.AuthorizeUser(actor, policy.ActionCreateUser, target); err != nil {
		return apperror.Respond(c, err)
	}

	if err := s.checkPlacement(c, roleKey, req.OrganizationID, req.DinasID); err != nil {
		return apperror.Respond(c, err)
	}

	roleData, err := s.userRepo.FindRoleByName(c.UserContext(), roleKey.String())
	if err != nil {
		return apperror.Respond(c, err)
	}

	hashedPwd, err := helper.HashPassword(req.Password)
	if err != nil {
		return apperror.Respond(c, apperror.Internal(err))
	}

	newUser := model.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hashedPwd,
		FullName:       req.FullName,
		Phone:          req.Phone,
		RoleID:         &roleData.ID,
		OrganizationID: req.OrganizationID,
		DinasID:        req.DinasID,
		Role:           *roleData,
	}

	if err := s.userRepo.Create(c.UserContext(), &newUser); err != nil {
		return apperror.Respond(c, err)
	}

	config.Log.WithFields(logrus.Fields{
		"user_id":    newUser.ID,
		"role":       roleData.Name,
		"created_by": actor.ID,
	}).Info("User created")

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Message: "User berhasil dibuat",
		Data:    newUser.Response(),
	})
}

// PUT /api/v1/users/:id
func (s *UserService) UpdateUser(c *fiber.Ctx) error {
	_, user, err := s.loadTarget(c, policy.ActionUpdateUser)
	if err != nil {
		return apperror.Respond(c, err)
	}

	var req model.UpdateUserRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Password != "" {
		hashedPwd, err := helper.HashPassword(req.Password)
		if err != nil {
			return apperror.Respond(c, apperror.Internal(err))
		}
		user.PasswordHash = hashedPwd
	}

	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Message: "User berhasil diupdate",
		Data:    user.Response(),
	})
}

// DELETE /api/v1/users/:id
func (s *UserService) DeleteUser(c *fiber.Ctx) error {
	actor, user, err := s.loadTarget(c, policy.ActionDeleteUser)
	if err != nil {
		return apperror.Respond(c, err)
	}

	if err := s.userRepo.Delete(c.UserContext(), user.ID); err != nil {
		return apperror.Respond(c, err)
	}

	config.Log.WithFields(logrus.Fields{"user_id": user.ID, "deleted_by": actor.ID}).Info("User deleted")

	return c.JSON(model.SuccessMessageResponse{
		Success: true,
		Message: "User berhasil dihapus",
	})
}

// PUT /api/v1/users/:id/activate
func (s *UserService) SetActive(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return apperror.Respond(c, err)
	}

	var req model.ActivateUserRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	user, err := s.userRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}

	action, message := policy.ActionDeactivateUser, "User berhasil dinonaktifkan"
	if *req.IsActive {
		action, message = policy.ActionActivateUser, "User berhasil diaktifkan"
	}
	if err := s.policy.AuthorizeUser(actor, action, policy.UserTargetOf(user)); err != nil {
		return apperror.Respond(c, err)
	}

	if err := s.userRepo.SetActive(c.UserContext(), id, *req.IsActive); err != nil {
		return apperror.Respond(c, err)
	}
	user.IsActive = *req.IsActive

	return c.JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Message: message,
		Data:    user.Response(),
	})
}

func (s *UserService) loadTarget(c *fiber.Ctx, action policy.Action) (model.Actor, *model.User, error) {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return model.Actor{}, nil, err
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return model.Actor{}, nil, err
	}
	user, err := s.userRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return model.Actor{}, nil, err
	}
	if err := s.policy.AuthorizeUser(actor, action, policy.UserTargetOf(user)); err != nil {
		return model.Actor{}, nil, err
	}
	return actor, user, nil
}

// checkPlacement makes sure department roles carry an existing dinas and
// regional roles carry an organization.
func (s *UserService) checkPlacement(c *fiber.Ctx, role model.RoleKey, orgID, dinasID *uint) error {
	switch role {
	case model.RoleKepalaDinas, model.RoleStafDinas, model.RoleTeknisiLapangan:
		if dinasID == nil {
			return apperror.Validation("dinas_id wajib diisi untuk role " + role.String())
		}
		ok, err := s.orgRepo.DinasExists(c.UserContext(), *dinasID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Validation("Dinas tidak ditemukan")
		}
	case model.RoleCamat, model.RoleStafKecamatan, model.RoleLurah, model.RoleStafKelurahan:
		if orgID == nil {
			return apperror.Validation("organization_id wajib diisi untuk role " + role.String())
		}
	}

	if orgID != nil {
		if _, err := s.orgRepo.FindByID(c.UserContext(), *orgID); err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return apperror.Validation("Organisasi tidak ditemukan")
			}
			return err
		}
	}
	return nil
}
