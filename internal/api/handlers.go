package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"voxbridge/internal/apperr"
	"voxbridge/internal/logger"
	"voxbridge/internal/utils"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "voxbridge"

// Service is the request-handling core behind the HTTP surface.
type Service interface {
	Transcribe(ctx context.Context, audio io.Reader, language string) (string, error)
	CheckModel() string
	Translate(ctx context.Context, text, source, target string) (string, error)
	CalculateSimilarity(ctx context.Context, userMsg string, candidates []string) (*string, error)
}

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	SourceLanguage string `json:"source_language" binding:"required"`
	TargetLanguage string `json:"target_language" binding:"required"`
}

// SimilarityRequest is the body of POST /calculateSimilarity.
type SimilarityRequest struct {
	UserMsg   string   `json:"userMsg" binding:"required"`
	Questions []string `json:"questions" binding:"required"`
}

type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

type ModelResponse struct {
	Model string `json:"model"`
}

type TranslateResponse struct {
	Translation string `json:"translation"`
}

// SimilarityResponse carries a null bestMatch when nothing matched.
type SimilarityResponse struct {
	BestMatch *string `json:"bestMatch"`
}

// Handler serves the gateway endpoints.
type Handler struct {
	svc Service
	log *logger.Logger
}

func NewHandler(svc Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log.WithComponent("api")}
}

// RouterConfig holds the HTTP-level settings of NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	MaxBodySize    int64
}

// NewRouter builds a gin engine with the middleware stack and all routes.
func NewRouter(cfg RouterConfig, h *Handler, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}
	httpLog := log.WithComponent("http")

	r := gin.New()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggerMiddleware(httpLog))
	r.Use(recoveryMiddleware(httpLog))
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	r.Use(bodyLimitMiddleware(cfg.MaxBodySize))

	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.healthCheck)

	r.POST("/transcribe", h.transcribe)
	r.GET("/checkWhisperModel", h.checkModel)
	r.POST("/translate", h.translate)
	r.POST("/calculateSimilarity", h.calculateSimilarity)
}

func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": ServiceName,
	})
}

// transcribe expects multipart/form-data with an "audio" file and a
// "language" field.
func (h *Handler) transcribe(c *gin.Context) {
	var audio io.Reader

	// FormFile parses the body; PostForm below reuses the parsed form.
	fh, err := c.FormFile("audio")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			h.respondError(c, apperr.Unexpected(err))
			return
		}
		defer f.Close()
		audio = f
	case isTooLarge(err):
		h.respondError(c, tooLargeError(err))
		return
	default:
		h.log.Debug("No audio in request", h.fields(c, logger.FieldError, err))
	}

	text, err := h.svc.Transcribe(c.Request.Context(), audio, c.PostForm("language"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, TranscribeResponse{Transcription: text})
}

func (h *Handler) checkModel(c *gin.Context) {
	utils.Success(c, ModelResponse{Model: h.svc.CheckModel()})
}

func (h *Handler) translate(c *gin.Context) {
	req, ok := bindJSON[TranslateRequest](h, c)
	if !ok {
		return
	}

	out, err := h.svc.Translate(c.Request.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, TranslateResponse{Translation: out})
}

func (h *Handler) calculateSimilarity(c *gin.Context) {
	req, ok := bindJSON[SimilarityRequest](h, c)
	if !ok {
		return
	}

	best, err := h.svc.CalculateSimilarity(c.Request.Context(), req.UserMsg, req.Questions)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, SimilarityResponse{BestMatch: best})
}

// bindJSON decodes the request body. Missing fields are left for the service
// to reject so that it owns the error messages, and a body that cannot be
// decoded is treated as empty. ok is false only when a response was written.
func bindJSON[T any](h *Handler, c *gin.Context) (req T, ok bool) {
	err := c.ShouldBindJSON(&req)
	if err == nil {
		return req, true
	}

	var verrs validator.ValidationErrors
	switch {
	case isTooLarge(err):
		h.respondError(c, tooLargeError(err))
		return req, false
	case errors.As(err, &verrs):
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		h.log.Debug("Request is missing fields", h.fields(c, "fields", missing))
		return req, true
	default:
		h.log.Debug("Malformed request body", h.fields(c, logger.FieldError, err))
		var empty T
		return empty, true
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	status := statusFor(e.Code)

	fields := h.fields(c, "code", string(e.Code), "status", status)
	if e.Cause != nil {
		fields[logger.FieldError] = e.Cause.Error()
	}
	if e.Code.IsClientError() {
		h.log.Warn(e.Message, fields)
	} else {
		h.log.Error(e.Message, fields)
	}

	utils.Error(c, status, e.Message)
}

func (h *Handler) fields(c *gin.Context, kvs ...interface{}) map[string]interface{} {
	f := logger.Fields(kvs...)
	f[logger.FieldRequestID] = c.GetString(ctxRequestID)
	return f
}

// statusFor maps an error code to its HTTP status.
func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeMissingField:
		return http.StatusBadRequest
	case apperr.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func tooLargeError(err error) *apperr.Error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apperr.PayloadTooLarge(mbe.Limit)
	}
	return apperr.Unexpected(err)
}
