package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/apperror"
	"fiber/responta/helper"
)

// actorAndID resolves the common prefix of every workflow endpoint.
func actorAndID(c *fiber.Ctx) (model.Actor, uuid.UUID, error) {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return model.Actor{}, uuid.Nil, err
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return model.Actor{}, uuid.Nil, err
	}
	return actor, id, nil
}

func respondTransition(c *fiber.Ctx, aduan *model.Aduan, err error, message string) error {
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(model.SuccessResponse[*model.Aduan]{
		Success: true,
		Message: message,
		Data:    aduan,
	})
}

// PUT /api/v1/aduan/:id/verify
func (s *AduanService) Verify(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.VerifyRequest
	if len(c.Body()) > 0 {
		if err := helper.ParseBody(c, &req); err != nil {
			return apperror.Respond(c, err)
		}
	}

	aduan, err := s.lifecycle.Verify(c.UserContext(), actor, id, req.Notes)
	return respondTransition(c, aduan, err, "Aduan berhasil diverifikasi")
}

// PUT /api/v1/aduan/:id/reject
func (s *AduanService) Reject(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.RejectRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	aduan, err := s.lifecycle.Reject(c.UserContext(), actor, id, req.Reason)
	return respondTransition(c, aduan, err, "Aduan ditolak")
}

// PUT /api/v1/aduan/:id/assign
func (s *AduanService) Assign(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.AssignRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	var aduan *model.Aduan
	switch req.Type {
	case "dinas":
		aduan, err = s.lifecycle.AssignDinas(c.UserContext(), actor, id, *req.DinasID, req.Notes)
	default:
		aduan, err = s.lifecycle.AssignStaff(c.UserContext(), actor, id, *req.StaffID, req.Notes)
	}
	return respondTransition(c, aduan, err, "Aduan berhasil ditugaskan")
}

// PUT /api/v1/aduan/:id/status
func (s *AduanService) UpdateStatus(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.StatusRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Status tidak valid", err))
	}

	aduan, err := s.lifecycle.UpdateStatus(c.UserContext(), actor, id, status, req.Notes)
	return respondTransition(c, aduan, err, "Status aduan diperbarui")
}

// PUT /api/v1/aduan/:id/priority
func (s *AduanService) SetPriority(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.PriorityRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Prioritas tidak valid", err))
	}

	aduan, err := s.lifecycle.SetPriority(c.UserContext(), actor, id, priority, req.Notes)
	return respondTransition(c, aduan, err, "Prioritas aduan diperbarui")
}

// PUT /api/v1/aduan/:id/progress
func (s *AduanService) UpdateProgress(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.ProgressRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	aduan, err := s.lifecycle.UpdateProgress(c.UserContext(), actor, id, *req.Progress, req.Notes)
	return respondTransition(c, aduan, err, "Progres aduan diperbarui")
}

// POST /api/v1/aduan/:id/notes
func (s *AduanService) AddNote(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	var req model.NoteRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	aduan, err := s.lifecycle.AddNote(c.UserContext(), actor, id, req.Notes)
	return respondTransition(c, aduan, err, "Catatan ditambahkan")
}

// GET /api/v1/aduan/:id/history
func (s *AduanService) History(c *fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	history, err := s.lifecycle.History(c.UserContext(), actor, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(model.SuccessResponse[[]model.AduanHistory]{
		Success: true,
		Data:    history,
	})
}
