package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fiber/responta/app/lifecycle"
	"fiber/responta/app/model"
	"fiber/responta/app/policy"
	"fiber/responta/app/repo"
	"fiber/responta/apperror"
	"fiber/responta/config"
	"fiber/responta/helper"
)

const (
	maxPhotoSize  = 5 << 20
	ticketRetries = 3
)

var photoTypes = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type AduanService struct {
	repo      repo.AduanRepository
	photos    repo.PhotoRepository
	orgs      repo.OrganizationRepository
	lifecycle *lifecycle.Manager
	policy    policy.Engine
	uploadDir string
	now       func() time.Time
}

func NewAduanService(
	repo repo.AduanRepository,
	photos repo.PhotoRepository,
	orgs repo.OrganizationRepository,
	manager *lifecycle.Manager,
	engine policy.Engine,
	uploadDir string,
) *AduanService {
	return &AduanService{
		repo:      repo,
		photos:    photos,
		orgs:      orgs,
		lifecycle: manager,
		policy:    engine,
		uploadDir: uploadDir,
		now:       time.Now,
	}
}

// POST /api/v1/aduan
func (s *AduanService) Create(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.policy.Authorize(actor, policy.ActionCreateAduan, nil); err != nil {
		return apperror.Respond(c, err)
	}

	var req model.CreateAduanRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	files, err := photoFiles(c, model.MaxPhotos)
	if err != nil {
		return apperror.Respond(c, err)
	}

	ctx := c.UserContext()
	now := s.now()
	aduan := &model.Aduan{
		ID:             uuid.New(),
		UserID:         actor.ID,
		Category:       req.Category,
		Description:    req.Description,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		Address:        req.Address,
		Status:         model.StatusBaru,
		Priority:       model.PriorityMedium,
		OrganizationID: s.kelurahanOf(ctx, actor),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 1; ; attempt++ {
		aduan.NomorTiket = helper.NewTicketNumber(now)
		err = s.repo.Create(ctx, aduan)
		if err == nil {
			break
		}
		if !apperror.Is(err, apperror.KindConflict) || attempt == ticketRetries {
			return apperror.Respond(c, err)
		}
	}

	photos, err := s.storePhotos(c, aduan.ID, files)
	if err != nil {
		if delErr := s.repo.Delete(ctx, aduan.ID, aduan.RowVersion); delErr != nil {
			config.Log.WithError(delErr).WithField("aduan_id", aduan.ID).Error("Failed to roll back aduan after photo failure")
		}
		return apperror.Respond(c, err)
	}

	config.Log.WithFields(logrus.Fields{
		"aduan_id":    aduan.ID,
		"nomor_tiket": aduan.NomorTiket,
		"user_id":     actor.ID,
	}).Info("Aduan created")

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[model.AduanResponse]{
		Success: true,
		Message: "Aduan berhasil dibuat",
		Data:    model.AduanResponse{Aduan: *aduan, Photos: photos},
	})
}

// GET /api/v1/aduan
func (s *AduanService) List(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	scope, err := s.policy.ListScope(actor)
	if err != nil {
		return apperror.Respond(c, err)
	}

	q := parseListQuery(c)
	filter := model.AduanFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   q.Search,
		SortBy:   q.SortBy,
		Order:    q.Order,
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if filter.Status != "" {
		if _, err := model.ParseStatus(filter.Status); err != nil {
			return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Status tidak valid", err))
		}
	}
	if filter.Priority != "" {
		if _, err := model.ParsePriority(filter.Priority); err != nil {
			return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Prioritas tidak valid", err))
		}
	}

	ctx := c.UserContext()
	items, total, err := s.repo.FindAll(ctx, scope, filter)
	if err != nil {
		return apperror.Respond(c, err)
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	photos, err := s.photos.ListByAduanIDs(ctx, ids)
	if err != nil {
		return apperror.Respond(c, err)
	}

	out := make([]model.AduanResponse, 0, len(items))
	for _, a := range items {
		p := photos[a.ID]
		if p == nil {
			p = []model.Photo{}
		}
		out = append(out, model.AduanResponse{Aduan: a, Photos: p})
	}

	return c.JSON(model.SuccessResponse[model.PaginationData[model.AduanResponse]]{
		Success: true,
		Data: model.PaginationData[model.AduanResponse]{
			Items: out,
			Meta:  q.meta(total),
		},
	})
}

// GET /api/v1/aduan/:id
func (s *AduanService) Get(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return apperror.Respond(c, err)
	}

	aduan, err := s.lifecycle.Get(c.UserContext(), actor, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return s.respondWithPhotos(c, aduan)
}

// GET /api/v1/aduan/tiket/:nomor
func (s *AduanService) GetByTicket(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	nomor := strings.ToUpper(c.Params("nomor"))
	if !helper.ValidTicketNumber(nomor) {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "Nomor tiket tidak valid"))
	}

	aduan, err := s.repo.FindByTicket(c.UserContext(), nomor)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.policy.Authorize(actor, policy.ActionViewAduan, policy.TargetOf(aduan)); err != nil {
		return apperror.Respond(c, err)
	}
	return s.respondWithPhotos(c, aduan)
}

// PUT /api/v1/aduan/:id
func (s *AduanService) Update(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return apperror.Respond(c, err)
	}

	ctx := c.UserContext()
	aduan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.policy.Authorize(actor, policy.ActionUpdateAduan, policy.TargetOf(aduan)); err != nil {
		return apperror.Respond(c, err)
	}

	var req model.UpdateAduanRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}
	if req.Category != nil {
		aduan.Category = *req.Category
	}
	if req.Description != nil {
		aduan.Description = *req.Description
	}
	if req.Latitude != nil {
		aduan.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		aduan.Longitude = *req.Longitude
	}
	if req.Address != nil {
		aduan.Address = *req.Address
	}
	aduan.UpdatedAt = s.now()

	if err := s.repo.UpdateDetails(ctx, aduan, aduan.RowVersion); err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(model.SuccessResponse[*model.Aduan]{
		Success: true,
		Message: "Aduan berhasil diperbarui",
		Data:    aduan,
	})
}

// DELETE /api/v1/aduan/:id
func (s *AduanService) Delete(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return apperror.Respond(c, err)
	}

	ctx := c.UserContext()
	aduan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.policy.Authorize(actor, policy.ActionDeleteAduan, policy.TargetOf(aduan)); err != nil {
		return apperror.Respond(c, err)
	}

	photos, err := s.photos.ListByAduan(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.repo.Delete(ctx, id, aduan.RowVersion); err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.photos.DeleteByAduan(ctx, id); err != nil {
		config.Log.WithError(err).WithField("aduan_id", id).Warn("Failed to delete photo metadata")
	}
	s.removeFiles(photos)

	config.Log.WithFields(logrus.Fields{"aduan_id": id, "user_id": actor.ID}).Info("Aduan deleted")

	return c.JSON(model.SuccessMessageResponse{
		Success: true,
		Message: "Aduan berhasil dihapus",
	})
}

// POST /api/v1/aduan/:id/photos
func (s *AduanService) AddPhotos(c *fiber.Ctx) error {
	actor, err := helper.ActorFrom(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	id, err := helper.ParamUUID(c, "id")
	if err != nil {
		return apperror.Respond(c, err)
	}

	ctx := c.UserContext()
	aduan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := s.policy.Authorize(actor, policy.ActionUpdateAduan, policy.TargetOf(aduan)); err != nil {
		return apperror.Respond(c, err)
	}

	existing, err := s.photos.Count(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	room := model.MaxPhotos - int(existing)
	if room <= 0 {
		return apperror.Respond(c, apperror.Validation(fmt.Sprintf("Aduan sudah memiliki %d foto", model.MaxPhotos)))
	}

	files, err := photoFiles(c, room)
	if err != nil {
		return apperror.Respond(c, err)
	}
	photos, err := s.storePhotos(c, id, files)
	if err != nil {
		return apperror.Respond(c, err)
	}

	// A concurrent upload that bumped the version first keeps its photos; ours are withdrawn.
	if err := s.repo.BumpVersion(ctx, id, aduan.RowVersion, s.now()); err != nil {
		s.withdrawPhotos(ctx, id, photos)
		return apperror.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[[]model.Photo]{
		Success: true,
		Message: "Foto berhasil ditambahkan",
		Data:    photos,
	})
}

func (s *AduanService) respondWithPhotos(c *fiber.Ctx, aduan *model.Aduan) error {
	photos, err := s.photos.ListByAduan(c.UserContext(), aduan.ID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(model.SuccessResponse[model.AduanResponse]{
		Success: true,
		Data:    model.AduanResponse{Aduan: *aduan, Photos: photos},
	})
}

// kelurahanOf places a new complaint in the reporter's kelurahan when there is one.
func (s *AduanService) kelurahanOf(ctx context.Context, actor model.Actor) *uint {
	if actor.OrganizationID == nil {
		return nil
	}
	org, err := s.orgs.FindByID(ctx, *actor.OrganizationID)
	if err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			config.Log.WithError(err).WithField("organization_id", *actor.OrganizationID).Warn("Failed to resolve reporter organization")
		}
		return nil
	}
	if org.Type != model.OrgKelurahan {
		return nil
	}
	id := org.ID
	return &id
}

// photoFiles reads the "photos" form field and checks count, extension and size.
func photoFiles(c *fiber.Ctx, max int) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, "Foto wajib diunggah", err)
	}
	files := form.File["photos"]
	if len(files) < model.MinPhotos {
		return nil, apperror.Validation("Foto wajib diunggah")
	}
	if len(files) > max {
		return nil, apperror.Validation(fmt.Sprintf("Maksimal %d foto", max))
	}
	for _, f := range files {
		if !photoTypes[strings.ToLower(filepath.Ext(f.Filename))] {
			return nil, apperror.Validation("Format foto harus jpg, jpeg, png atau webp")
		}
		if f.Size > maxPhotoSize {
			return nil, apperror.Validation("Ukuran foto maksimal 5MB")
		}
	}
	return files, nil
}

// storePhotos writes the files to disk and records their metadata. On failure nothing is left behind.
func (s *AduanService) storePhotos(c *fiber.Ctx, aduanID uuid.UUID, files []*multipart.FileHeader) ([]model.Photo, error) {
	if err := os.MkdirAll(s.uploadDir, os.ModePerm); err != nil {
		return nil, apperror.Internal(err)
	}

	uploadedAt := s.now()
	photos := make([]model.Photo, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		stored := fmt.Sprintf("%s_%s%s", aduanID.String(), uuid.NewString(), ext)
		if err := c.SaveFile(f, filepath.Join(s.uploadDir, stored)); err != nil {
			s.removeFiles(photos)
			return nil, apperror.Internal(err)
		}
		photos = append(photos, model.Photo{
			AduanID:    aduanID.String(),
			FileName:   f.Filename,
			FileURL:    "/uploads/" + stored,
			FileType:   ext,
			Size:       f.Size,
			UploadedAt: uploadedAt,
		})
	}

	if err := s.photos.Add(c.UserContext(), photos...); err != nil {
		s.removeFiles(photos)
		return nil, err
	}
	return photos, nil
}

func (s *AduanService) withdrawPhotos(ctx context.Context, aduanID uuid.UUID, photos []model.Photo) {
	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		urls = append(urls, p.FileURL)
	}
	if err := s.photos.Remove(ctx, aduanID, urls); err != nil {
		config.Log.WithError(err).WithField("aduan_id", aduanID).Warn("Failed to withdraw photo metadata")
	}
	s.removeFiles(photos)
}

func (s *AduanService) removeFiles(photos []model.Photo) {
	for _, p := range photos {
		path := filepath.Join(s.uploadDir, filepath.Base(p.FileURL))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			config.Log.WithError(err).WithField("path", path).Warn("Failed to remove photo file")
		}
	}
}
