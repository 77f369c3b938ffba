package http

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"health-profiler/internal/domain"
	"health-profiler/internal/service"
)

// multipartOverhead cubre boundaries y campos de texto del formulario.
const multipartOverhead int64 = 64 * 1024

// ProfileHandler expone el pipeline de analisis de perfiles.
type ProfileHandler struct {
	logger        *zap.Logger
	profileServ   *service.ProfileService
	limiter       service.AnalysisRateLimiter
	maxImageBytes int64
}

// NewProfileHandler crea el handler. limiter puede ser nil (sin limite).
func NewProfileHandler(logger *zap.Logger, profileServ *service.ProfileService, limiter service.AnalysisRateLimiter, maxImageBytes int64) *ProfileHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = service.DefaultMaxImageBytes
	}
	return &ProfileHandler{
		logger:        logger,
		profileServ:   profileServ,
		limiter:       limiter,
		maxImageBytes: maxImageBytes,
	}
}

// Analyze maneja POST /profile/analyze con texto o imagen en base64.
func (h *ProfileHandler) Analyze(c *gin.Context) {
	requestID := uuid.NewString()
	c.Header("X-Request-ID", requestID)

	var req struct {
		Text        string `json:"text"`
		ImageBase64 string `json:"image_base64"`
		MediaType   string `json:"media_type"`
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxJSONBodyBytes())
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(c, requestID, errImageTooLarge())
			return
		}
		h.logger.Warn("invalid analyze request", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "request_id": requestID})
		return
	}

	var (
		analysisReq domain.AnalysisRequest
		err         error
	)
	switch {
	case strings.TrimSpace(req.Text) != "" && strings.TrimSpace(req.ImageBase64) != "":
		err = &service.InvalidInputError{Reason: "provide either text or an image, not both"}
	case strings.TrimSpace(req.ImageBase64) != "":
		analysisReq, err = service.NewBase64ImageRequest(req.ImageBase64, req.MediaType, h.maxImageBytes)
	default:
		analysisReq, err = service.NewTextRequest(req.Text)
	}
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	h.run(c, requestID, analysisReq)
}

// AnalyzeImage maneja POST /profile/analyze/image (multipart, campo "image").
func (h *ProfileHandler) AnalyzeImage(c *gin.Context) {
	requestID := uuid.NewString()
	c.Header("X-Request-ID", requestID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+multipartOverhead)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(c, requestID, errImageTooLarge())
			return
		}
		h.respondError(c, requestID, &service.InvalidInputError{Reason: "no image provided"})
		return
	}
	if fileHeader.Size > h.maxImageBytes {
		h.respondError(c, requestID, errImageTooLarge())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded image failed", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read image", "request_id": requestID})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		h.logger.Error("read uploaded image failed", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read image", "request_id": requestID})
		return
	}

	mediaType := c.PostForm("media_type")
	if mediaType == "" {
		mediaType = fileHeader.Header.Get("Content-Type")
	}
	analysisReq, err := service.NewImageRequest(data, mediaType, h.maxImageBytes)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	h.run(c, requestID, analysisReq)
}

// maxJSONBodyBytes acota el cuerpo JSON: la imagen en base64 mas margen para el resto de los campos.
func (h *ProfileHandler) maxJSONBodyBytes() int64 {
	return int64(base64.StdEncoding.EncodedLen(int(h.maxImageBytes))) + multipartOverhead
}

func errImageTooLarge() error {
	return &service.InvalidInputError{Reason: "image exceeds the maximum allowed size"}
}

// Health maneja GET /healthz.
func (h *ProfileHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ProfileHandler) run(c *gin.Context, requestID string, req domain.AnalysisRequest) {
	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), c.ClientIP()) {
		h.respondError(c, requestID, service.ErrRateLimited)
		return
	}

	result, err := h.profileServ.Analyze(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"outcome":    result.Outcome(),
		"result":     result,
	})
}

func (h *ProfileHandler) respondError(c *gin.Context, requestID string, err error) {
	body := gin.H{"error": service.UserMessage(err), "request_id": requestID}

	var schemaErr *service.SchemaViolationError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrMalformedResponse):
		status = http.StatusBadGateway
	case errors.As(err, &schemaErr):
		status = http.StatusBadGateway
		body["field"] = schemaErr.Field
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("profile analysis failed", zap.String("request_id", requestID), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Warn("profile analysis rejected", zap.String("request_id", requestID), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, body)
}
