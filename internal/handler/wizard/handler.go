package wizard

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wizardService "github.com/jobadwizard/backend/internal/service/wizard"
	"github.com/jobadwizard/backend/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Handler exposes the wizard over HTTP and WebSocket.
type Handler struct {
	svc      *wizardService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates the wizard handler.
func New(svc *wizardService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		logger: logger.Named("http"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Post("/users", h.handleCreateUser)
	r.Delete("/sessions/{userID}", h.handleReset)
	r.Get("/locales", h.handleListLocales)
	r.Get("/ws/{userID}", h.handleWebSocket)
}

// turnRequest is one answer submitted by the page.
type turnRequest struct {
	UserID  string `form:"user_id" json:"user_id" validate:"required,max=128,nocontrol"`
	Message string `form:"message" json:"message" validate:"max=8000"`
	Locale  string `form:"locale" json:"locale" validate:"omitempty,alpha,len=2"`
}

// HandleChat advances the caller's wizard by one turn.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTurnRequest(w, r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Advance(r.Context(), req.UserID, req.Message, req.Locale)
	if err != nil {
		status, message := h.classifyError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("chat turn failed", zap.String("user_id", req.UserID), zap.Error(err))
		}
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

// decodeTurnRequest accepts the original form encoding and a JSON body.
func decodeTurnRequest(w http.ResponseWriter, r *http.Request) (turnRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return turnRequest{}, errors.New("invalid request body")
		}
		req.UserID = strings.TrimSpace(req.UserID)
		req.Locale = strings.TrimSpace(req.Locale)
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return turnRequest{}, errors.New("invalid form body")
	}
	return turnRequest{
		UserID:  strings.TrimSpace(r.PostForm.Get("user_id")),
		Message: r.PostForm.Get("message"),
		Locale:  strings.TrimSpace(r.PostForm.Get("locale")),
	}, nil
}

func (h *Handler) classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, wizardService.ErrUserIDRequired):
		return http.StatusBadRequest, "user_id is required"
	case errors.Is(err, wizardService.ErrMessageRequired):
		return http.StatusBadRequest, "message is required"
	case errors.Is(err, wizardService.ErrUnknownLocale):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, wizardService.ErrGeneration):
		return http.StatusBadGateway, "job ad generation failed, please try again"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// handleCreateUser issues an identifier the page can use as user_id.
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"userId": uuid.NewString()})
}

// handleReset drops the caller's progress so the wizard starts over.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.svc.Reset(r.Context(), userID); err != nil {
		status, message := h.classifyError(err)
		utils.RespondError(w, status, message)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListLocales(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.svc.Locales().List())
}
