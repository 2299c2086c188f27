package upload

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"imagevault/internal/middleware"
	"imagevault/internal/pkg/jwt"
	"imagevault/internal/pkg/response"
	"imagevault/internal/realtime"

	"github.com/gin-gonic/gin"
)

const multipartOverhead = 1 << 20

type Handler struct {
	service *Service
	hub     *realtime.Hub
	tokens  *jwt.Service
}

// NewHandler wires the HTTP layer. hub may be nil, in which case the events
// endpoint is not mounted.
func NewHandler(service *Service, hub *realtime.Hub, tokens *jwt.Service) *Handler {
	return &Handler{service: service, hub: hub, tokens: tokens}
}

// RegisterRoutes mounts /uploads on api. Every route needs a valid token.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	if h.hub != nil && h.tokens != nil {
		// browsers cannot set headers on a websocket handshake
		api.GET("/uploads/events", h.Events)
	}

	uploads := api.Group("/uploads")
	uploads.Use(requireAuth)
	{
		uploads.POST("/single", h.limitBody(), h.UploadSingle)
		uploads.POST("/multiple", h.limitBody(), h.UploadMultiple)
		uploads.GET("", h.List)
		uploads.GET("/admin/all", middleware.AdminOnly(), h.ListAll)
		uploads.GET("/:id", h.Get)
		uploads.PUT("/:id/reupload", h.limitBody(), h.Reupload)
		uploads.DELETE("/:id", h.Delete)
	}
}

// @Router /uploads/single [POST]
func (h *Handler) UploadSingle(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.FromError(c, formError(err, ErrNoFile))
		return
	}

	rec, err := h.service.UploadSingle(c.Request.Context(), c.GetInt64(middleware.ContextUserID), FromFileHeader(fh))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "File uploaded successfully", rec)
}

// @Router /uploads/multiple [POST]
func (h *Handler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.FromError(c, formError(err, ErrNoFiles))
		return
	}

	headers := form.File["files"]
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, FromFileHeader(fh))
	}

	result, err := h.service.UploadMultiple(c.Request.Context(), c.GetInt64(middleware.ContextUserID), files)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusCreated, "Multiple files uploaded successfully", result, gin.H{"count": result.Count})
}

// @Router /uploads [GET]
func (h *Handler) List(c *gin.Context) {
	page, err := queryInt(c, "page", ErrInvalidPage)
	if err != nil {
		response.FromError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", ErrInvalidLimit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), c.GetInt64(middleware.ContextUserID), ListQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Images fetched successfully", result.Items, result.Meta)
}

// @Router /uploads/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Image fetched successfully", rec)
}

// @Router /uploads/admin/all [GET]
func (h *Handler) ListAll(c *gin.Context) {
	items, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "All images fetched", items, gin.H{"count": len(items)})
}

// @Router /uploads/{id}/reupload [PUT]
func (h *Handler) Reupload(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.FromError(c, formError(err, ErrNoFile))
		return
	}

	result, err := h.service.Reupload(c.Request.Context(), id, c.GetInt64(middleware.ContextUserID), FromFileHeader(fh))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "File reuploaded successfully", result)
}

// @Router /uploads/{id} [DELETE]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), id, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "File deleted successfully", result)
}

// Events upgrades to a websocket that streams the caller's upload events.
// The token comes from the Authorization header or the token query param.
func (h *Handler) Events(c *gin.Context) {
	raw := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			raw = strings.TrimSpace(parts[1])
		}
	}
	if raw == "" {
		response.Error(c, http.StatusUnauthorized, "Authorization header is required")
		return
	}

	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	// Upgrade already answered the client on failure.
	if err := h.hub.Upgrade(c.Writer, c.Request, claims.UserID); err != nil {
		_ = c.Error(err)
	}
}

// limitBody caps the request body so oversized batches fail before they
// are spooled to disk.
func (h *Handler) limitBody() gin.HandlerFunc {
	opts := h.service.Options()
	limit := int64(opts.MaxBatchFiles)*opts.MaxFileSize + multipartOverhead
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.FromError(c, ErrInvalidID)
		return 0, false
	}
	return id, true
}

// queryInt returns 0 when the parameter is absent so the service applies
// its default.
func queryInt(c *gin.Context, name string, invalid error) (int, error) {
	raw, present := c.GetQuery(name)
	if !present {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, invalid
	}
	return n, nil
}

func formError(err, missing error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return ErrBodyTooLarge
	}
	return missing
}
