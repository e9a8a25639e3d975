package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/usecase"
	"github.com/5olen-tripshare/accommodation-api/internal/adapter/http/middleware"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/metrics"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing; larger
// parts spill to temporary files.
const maxMultipartMemory = 32 << 20

// AccommodationHandler serves the accommodation HTTP API.
type AccommodationHandler struct {
	usecase *usecase.AccommodationUsecase
	metrics *metrics.Manager
	logger  *logger.Logger
}

func NewAccommodationHandler(uc *usecase.AccommodationUsecase, mm *metrics.Manager, log *logger.Logger) *AccommodationHandler {
	return &AccommodationHandler{
		usecase: uc,
		metrics: mm,
		logger:  log.Named("AccommodationHandler"),
	}
}

// accommodationResponse is the wire shape of one accommodation.
type accommodationResponse struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	Name        string                `json:"name"`
	Location    string                `json:"location"`
	Description string                `json:"description,omitempty"`
	Price       float64               `json:"price"`
	Images      []string              `json:"images"`
	TopCriteria []string              `json:"topCriteria"`
	Interests   []string              `json:"interests"`
	IsAvailable bool                  `json:"isAvailable"`
	TotalPlaces int                   `json:"totalPlaces"`
	NumberRoom  int                   `json:"numberRoom"`
	SquareMeter int                   `json:"squareMeter"`
	BedRoom     int                   `json:"bedRoom"`
	Reviews     reviewSummaryResponse `json:"reviews"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

type reviewSummaryResponse struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}

func toResponse(acc *domain.Accommodation) accommodationResponse {
	images := acc.Images
	if images == nil {
		images = []string{}
	}
	topCriteria := acc.TopCriteria
	if topCriteria == nil {
		topCriteria = []string{}
	}
	interests := acc.Interests
	if interests == nil {
		interests = []string{}
	}
	return accommodationResponse{
		ID:          acc.ID.Hex(),
		UserID:      acc.UserID,
		Name:        acc.Name,
		Location:    acc.Location,
		Description: acc.Description,
		Price:       acc.Price,
		Images:      images,
		TopCriteria: topCriteria,
		Interests:   interests,
		IsAvailable: acc.IsAvailable,
		TotalPlaces: acc.TotalPlaces,
		NumberRoom:  acc.NumberRoom,
		SquareMeter: acc.SquareMeter,
		BedRoom:     acc.BedRoom,
		Reviews:     reviewSummaryResponse{Rating: acc.Reviews.Rating, Count: acc.Reviews.Count},
		CreatedAt:   acc.CreatedAt,
		UpdatedAt:   acc.UpdatedAt,
	}
}

func toResponseList(accs []*domain.Accommodation) []accommodationResponse {
	out := make([]accommodationResponse, 0, len(accs))
	for _, acc := range accs {
		out = append(out, toResponse(acc))
	}
	return out
}

// patchRequest models the JSON body of a partial update. Fields that must not
// be client-writable (id, userId, reviews) have no counterpart here, so they
// are silently dropped by the decoder.
type patchRequest struct {
	Name        *string   `json:"name"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Images      *[]string `json:"images"`
	TopCriteria *[]string `json:"topCriteria"`
	Interests   *[]string `json:"interests"`
	IsAvailable *bool     `json:"isAvailable"`
	TotalPlaces *int      `json:"totalPlaces"`
	NumberRoom  *int      `json:"numberRoom"`
	SquareMeter *int      `json:"squareMeter"`
	BedRoom     *int      `json:"bedRoom"`
}

// HandleCreate handles POST /api/accommodations (multipart form).
func (h *AccommodationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrForbidden)
		return
	}

	input, uploads, retained, err := h.parseMultipartForm(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	acc, err := h.usecase.Create(r.Context(), userID, input, uploads, retained)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccommodationsCreatedTotal.Inc()
	}
	h.writeJSON(w, http.StatusCreated, toResponse(acc))
}

// HandleList handles GET /api/accommodations: available listings only.
func (h *AccommodationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accs, err := h.usecase.ListAvailable(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toResponseList(accs))
}

// HandleListAll handles GET /api/accommodations/all: the unfiltered variant.
func (h *AccommodationHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	accs, err := h.usecase.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toResponseList(accs))
}

// HandleListByOwner handles GET /api/accommodations/user: the caller's own
// listings. An owner with none gets 200 and an empty array.
func (h *AccommodationHandler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrForbidden)
		return
	}
	accs, err := h.usecase.ListByOwner(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toResponseList(accs))
}

// HandleSearch handles GET /api/accommodations/search?q=…
func (h *AccommodationHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	accs, err := h.usecase.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toResponseList(accs))
}

// HandleGetByID handles GET /api/accommodations/{id}.
func (h *AccommodationHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	acc, err := h.usecase.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toResponse(acc))
}

// HandleUpdate handles PUT /api/accommodations/{id} (multipart full update).
func (h *AccommodationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrForbidden)
		return
	}
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	input, uploads, retained, err := h.parseMultipartForm(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	acc, err := h.usecase.Update(r.Context(), id, userID, input, uploads, retained)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccommodationUpdatesTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, toResponse(acc))
}

// HandlePartialUpdate handles PATCH /api/accommodations/{id} (JSON body).
func (h *AccommodationHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrForbidden)
		return
	}
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.NewValidationError("invalid JSON body"))
		return
	}

	patch := domain.Patch{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		TopCriteria: req.TopCriteria,
		Interests:   req.Interests,
		IsAvailable: req.IsAvailable,
		TotalPlaces: req.TotalPlaces,
		NumberRoom:  req.NumberRoom,
		SquareMeter: req.SquareMeter,
		BedRoom:     req.BedRoom,
	}

	acc, err := h.usecase.PartialUpdate(r.Context(), id, userID, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccommodationUpdatesTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, toResponse(acc))
}

// HandleDelete handles DELETE /api/accommodations/{id}.
func (h *AccommodationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrForbidden)
		return
	}
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.usecase.Delete(r.Context(), id, userID); err != nil {
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccommodationDeletesTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "accommodation deleted"})
}

// parseMultipartForm reads the create/update form: scalar fields as received,
// tag lists, the uploaded files and the retained image references
// (ancienneImage, the field name the mobile clients already send).
func (h *AccommodationHandler) parseMultipartForm(r *http.Request) (usecase.AccommodationInput, []usecase.Upload, []string, error) {
	var input usecase.AccommodationInput

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return input, nil, nil, domain.NewValidationError("invalid multipart form")
	}

	input = usecase.AccommodationInput{
		Name:        r.FormValue("name"),
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		TotalPlaces: r.FormValue("totalPlaces"),
		NumberRoom:  r.FormValue("numberRoom"),
		SquareMeter: r.FormValue("squareMeter"),
		BedRoom:     r.FormValue("bedRoom"),
		IsAvailable: r.FormValue("isAvailable"),
	}

	var retained []string
	if r.MultipartForm != nil {
		input.TopCriteria = r.MultipartForm.Value["topCriteria"]
		input.Interests = r.MultipartForm.Value["interests"]
		retained = r.MultipartForm.Value["ancienneImage"]
	}

	var uploads []usecase.Upload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			upload, err := readUpload(header)
			if err != nil {
				h.logger.Error("Failed to read uploaded file", zap.String("filename", header.Filename), zap.Error(err))
				return input, nil, nil, domain.NewValidationError("could not read uploaded file: " + header.Filename)
			}
			uploads = append(uploads, upload)
		}
	}

	return input, uploads, retained, nil
}

// readUpload loads one part into memory. Oversized parts are not read at all;
// batch validation will reject them by declared size.
func readUpload(header *multipart.FileHeader) (usecase.Upload, error) {
	upload := usecase.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if header.Size > usecase.MaxUploadSize {
		return upload, nil
	}

	file, err := header.Open()
	if err != nil {
		return upload, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload, err
	}
	upload.Data = data
	return upload, nil
}

func parseID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		// A malformed id cannot name any stored record.
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return id, nil
}

func (h *AccommodationHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors to status codes. Internal details never reach
// the response body.
func (h *AccommodationHandler) writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "validation failed",
			"errors":  validationErr.Problems,
		})
	case errors.Is(err, domain.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"message": "accommodation not found"})
	case errors.Is(err, domain.ErrForbidden):
		h.writeJSON(w, http.StatusForbidden, map[string]string{"message": "action forbidden"})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
	}
}
