package file

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ironvault/api/internal/room"
	"github.com/ironvault/api/pkg/inflight"
	"github.com/ironvault/api/pkg/response"
)

// Handler handles HTTP requests for file operations. Its routes are mounted
// under /rooms/{id}/files, so the room id comes from the parent URL tree.
type Handler struct {
	service *Service
}

// NewHandler creates a new file handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for file endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{fileId}/visibility", h.SetVisibility)
	r.Delete("/{fileId}", h.Delete)

	return r
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrFileNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrNotRoomMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, inflight.ErrInProgress):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func params(r *http.Request) (roomID, fileID int64, err error) {
	roomID, err = strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if raw := chi.URLParam(r, "fileId"); raw != "" {
		fileID, err = strconv.ParseInt(raw, 10, 64)
	}
	return roomID, fileID, err
}

// Create handles POST /rooms/{id}/files
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	roomID, _, err := params(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.OriginalFilename == "" || req.FileSize < 1 {
		response.BadRequest(w, "original_filename and file_size are required")
		return
	}

	f, err := h.service.Create(r.Context(), room.ActorFromContext(r.Context()), roomID, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to register file")
		return
	}

	response.JSON(w, http.StatusCreated, f.ToResponse())
}

// List handles GET /rooms/{id}/files
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roomID, _, err := params(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var category Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		category = Category(raw)
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	files, total, err := h.service.ListByRoom(r.Context(), room.ActorFromContext(r.Context()), roomID, category, page, perPage)
	if err != nil {
		writeServiceError(w, err, "Failed to list files")
		return
	}

	fileResponses := make([]*FileResponse, len(files))
	for i, f := range files {
		fileResponses[i] = f.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, fileResponses, meta)
}

// SetVisibility handles PUT /rooms/{id}/files/{fileId}/visibility
// @Summary      Change file visibility
// @Description  Toggle a file between private and public. Allowed for room admins, the room creator and the uploader.
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        id path int true "Room ID"
// @Param        fileId path int true "File ID"
// @Param        request body UpdateVisibilityRequest true "Target visibility"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /rooms/{id}/files/{fileId}/visibility [put]
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	roomID, fileID, err := params(r)
	if err != nil {
		response.BadRequest(w, "Invalid room or file ID")
		return
	}

	var req UpdateVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	visibility, ok := ParseVisibility(req.Visibility)
	if !ok {
		response.BadRequest(w, "visibility must be private or public")
		return
	}

	if err := h.service.SetVisibility(r.Context(), room.ActorFromContext(r.Context()), roomID, fileID, visibility); err != nil {
		writeServiceError(w, err, "Failed to update visibility")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Visibility updated"})
}

// Delete handles DELETE /rooms/{id}/files/{fileId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID, fileID, err := params(r)
	if err != nil {
		response.BadRequest(w, "Invalid room or file ID")
		return
	}

	if err := h.service.Delete(r.Context(), room.ActorFromContext(r.Context()), roomID, fileID); err != nil {
		writeServiceError(w, err, "Failed to delete file")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}
