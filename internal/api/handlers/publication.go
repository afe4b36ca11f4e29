package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terrain-ouvert/datahub/internal/api/dto"
	"github.com/terrain-ouvert/datahub/internal/api/middleware"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/utils"
	"github.com/terrain-ouvert/datahub/internal/query"
	"github.com/terrain-ouvert/datahub/internal/upload"
)

// Uploader stores the images of a request and returns their references
type Uploader interface {
	Upload(ctx context.Context, blobs []upload.Blob, ownerID int64, batchTag string) (upload.Result, error)
}

// PublicationConfig tunes request parsing and listings
type PublicationConfig struct {
	BatchTag    string
	MaxFiles    int
	MaxFileSize int64
	// MaxMemory bounds the multipart body kept in memory
	MaxMemory int64
	// MaxBody bounds the whole request body
	MaxBody     int64
	ListOptions query.Options
}

// bodySlack leaves room for form fields and multipart framing.
const bodySlack = 1 << 20

// PublicationHandler serves the publication collection
type PublicationHandler struct {
	service  publication.Service
	uploader Uploader
	cfg      PublicationConfig
	logger   *logger.Logger
}

// NewPublicationHandler creates a new publication handler
func NewPublicationHandler(service publication.Service, uploader Uploader, cfg PublicationConfig, log *logger.Logger) *PublicationHandler {
	if cfg.MaxMemory <= 0 {
		cfg.MaxMemory = int64(cfg.MaxFiles+1) * cfg.MaxFileSize
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = int64(cfg.MaxFiles)*cfg.MaxFileSize + bodySlack
	}
	return &PublicationHandler{
		service:  service,
		uploader: uploader,
		cfg:      cfg,
		logger:   log,
	}
}

// List returns a page of publications
// @Summary List publications
// @Description Filter with field=value or field[gte|gt|lte|lt|eq]=value, sort with sort=-rating,title, select with fields=title,images
// @Tags Publications
// @Produce json
// @Param sort query string false "Sort keys, '-' for descending"
// @Param fields query string false "Comma separated projection"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 50, max: 100)"
// @Success 200 {object} utils.SuccessResponse "Page of publications"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /resources [get]
func (h *PublicationHandler) List(w http.ResponseWriter, r *http.Request) {
	plan := query.Compile(r.URL.Query(), h.cfg.ListOptions)

	page, err := h.service.List(r.Context(), nil, plan)
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to list publications")
		return
	}
	respondPage(w, r, h.logger, page)
}

// ListByUser returns a page of the publications of one user
// @Summary List publications of a user
// @Tags Publications
// @Produce json
// @Param userId path int true "Owner ID"
// @Success 200 {object} utils.SuccessResponse "Page of publications"
// @Failure 400 {object} utils.ErrorResponse "Invalid user ID"
// @Security BearerAuth
// @Router /resources/user/{userId} [get]
func (h *PublicationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || ownerID <= 0 {
		utils.WriteError(w, errors.BadRequest("Invalid user ID"))
		return
	}

	plan := query.Compile(r.URL.Query(), h.cfg.ListOptions)
	page, err := h.service.ListByOwner(r.Context(), ownerID, plan)
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to list user publications")
		return
	}
	respondPage(w, r, h.logger, page)
}

// Get returns one publication with its owner
// @Summary Get publication by ID
// @Tags Publications
// @Produce json
// @Param id path string true "Publication ID"
// @Success 200 {object} utils.SuccessResponse{data=utils.Payload{data=publication.Publication}} "Publication"
// @Failure 404 {object} utils.ErrorResponse "Publication not found"
// @Router /resources/{id} [get]
func (h *PublicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetWithOwner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to get publication")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, p)
}

// Create creates a publication, uploading its images first
// @Summary Create publication
// @Description JSON body, or multipart form with up to 3 files in "images"
// @Tags Publications
// @Accept json,mpfd
// @Produce json
// @Param request body dto.CreatePublicationRequest true "Publication"
// @Success 201 {object} utils.SuccessResponse{data=utils.Payload{data=publication.Publication}} "Created publication"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 502 {object} utils.ErrorResponse "Image upload failed"
// @Security BearerAuth
// @Router /resources [post]
func (h *PublicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	if err := h.limitBody(w, r); err != nil {
		utils.WriteError(w, errors.From(err))
		return
	}
	req, files, err := dto.DecodeCreate(r, h.cfg.MaxMemory)
	if err != nil {
		utils.WriteError(w, errors.From(err))
		return
	}

	doc := req.ToPublication()
	if dto.IsMultipart(r) {
		images, err := h.uploadImages(r.Context(), files, userID)
		if err != nil {
			respondError(w, r, h.logger, err, "Failed to upload images")
			return
		}
		doc.Images = images
	}

	created, err := h.service.Create(r.Context(), doc, userID)
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to create publication")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, created)
}

// Modify applies a partial update; uploaded images replace the list
// @Summary Modify publication
// @Tags Publications
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Publication ID"
// @Param request body dto.UpdatePublicationRequest true "Changes"
// @Success 200 {object} utils.SuccessResponse{data=utils.Payload{data=publication.Publication}} "Updated publication"
// @Failure 403 {object} utils.ErrorResponse "Not the owner"
// @Failure 404 {object} utils.ErrorResponse "Publication not found"
// @Security BearerAuth
// @Router /resources/modify/{id} [patch]
func (h *PublicationHandler) Modify(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	if err := h.limitBody(w, r); err != nil {
		utils.WriteError(w, errors.From(err))
		return
	}
	req, files, err := dto.DecodeUpdate(r, h.cfg.MaxMemory)
	if err != nil {
		utils.WriteError(w, errors.From(err))
		return
	}

	patch := req.ToPatch()
	if len(files) > 0 {
		images, err := h.uploadImages(r.Context(), files, userID)
		if err != nil {
			respondError(w, r, h.logger, err, "Failed to upload images")
			return
		}
		patch.Images = images
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch.Apply)
	if err != nil {
		respondError(w, r, h.logger, err, "Failed to update publication")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, updated)
}

// limitBody rejects bodies declared larger than MaxBody and caps the rest
// while they are read.
func (h *PublicationHandler) limitBody(w http.ResponseWriter, r *http.Request) error {
	if r.ContentLength > h.cfg.MaxBody {
		return dto.BodyTooLarge(h.cfg.MaxBody)
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBody)
	return nil
}

// Delete removes a publication
// @Summary Delete publication
// @Tags Publications
// @Param id path string true "Publication ID"
// @Success 204 "Deleted"
// @Failure 403 {object} utils.ErrorResponse "Not the owner"
// @Failure 404 {object} utils.ErrorResponse "Publication not found"
// @Security BearerAuth
// @Router /resources/delete/{id} [delete]
func (h *PublicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err, "Failed to delete publication")
		return
	}
	utils.WriteNoContent(w)
}

// OwnerOf resolves the owner of a publication for middleware.OnlyOwner
func (h *PublicationHandler) OwnerOf(ctx context.Context, id string) (int64, error) {
	p, err := h.service.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.User, nil
}

func (h *PublicationHandler) uploadImages(ctx context.Context, files []*multipart.FileHeader, ownerID int64) ([]string, error) {
	if err := upload.CheckCount(len(files), h.cfg.MaxFiles); err != nil {
		return nil, err
	}
	blobs, err := upload.FromMultipart(files, h.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	urls, err := h.uploader.Upload(ctx, blobs, ownerID, h.cfg.BatchTag)
	if err != nil {
		return nil, err
	}
	return urls, nil
}
