package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/web"
)

// Handler wires HTTP routes to the domain service.
type Handler struct {
	service  *domain.Service
	validate *validator.Validate
	compat   bool
	health   func(context.Context) error
}

// Option configures optional Handler behaviour.
type Option func(*Handler)

// WithCompatSoftErrors restores the legacy error payloads: {"error"} for storage
// failures and a 200 {"message"} when an exercise cannot be recorded.
func WithCompatSoftErrors(enabled bool) Option {
	return func(h *Handler) {
		h.compat = enabled
	}
}

// WithHealthCheck sets the probe used by /healthz.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(h *Handler) {
		h.health = check
	}
}

// NewHandler constructs a Handler.
func NewHandler(service *domain.Service, opts ...Option) *Handler {
	h := &Handler{service: service, validate: newValidator()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes attaches handlers to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServerFS(web.Public)))
	mux.HandleFunc("GET /healthz", h.healthz)

	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("GET /api/users", h.listUsers)
	mux.HandleFunc("POST /api/users/{_id}/exercises", h.addExercise)
	mux.HandleFunc("GET /api/users/{_id}/logs", h.getLogs)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, web.Views, "index.html")
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable", "storage is unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	form, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, opCreateUser, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), form.Get("username"))
	if err != nil {
		h.fail(w, r, opCreateUser, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, opListUsers, err)
		return
	}

	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, toUserView(user))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("_id")
	logging.FromContext(r.Context()).Debug("looking up user", "user_id", userID)

	form, err := readBody(w, r)
	if err != nil {
		h.fail(w, r, opAddExercise, err)
		return
	}

	req := AddExerciseRequest{
		Description: form.Get("description"),
		Duration:    strings.TrimSpace(form.Get("duration")),
		Date:        strings.TrimSpace(form.Get("date")),
	}
	if err := h.validateRequest(req); err != nil {
		h.fail(w, r, opAddExercise, err)
		return
	}
	duration, err := coerceDuration(req.Duration)
	if err != nil {
		h.fail(w, r, opAddExercise, err)
		return
	}

	exercise, err := h.service.AddExercise(r.Context(), domain.AddExerciseInput{
		UserID:      userID,
		Description: req.Description,
		Duration:    duration,
		Date:        req.Date,
	})
	if err != nil {
		h.fail(w, r, opAddExercise, err)
		return
	}
	writeJSON(w, http.StatusOK, toExerciseView(*exercise))
}

func (h *Handler) getLogs(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("_id")
	logging.FromContext(r.Context()).Debug("looking up user", "user_id", userID)

	query := r.URL.Query()
	req := LogsRequest{
		From:  strings.TrimSpace(query.Get("from")),
		To:    strings.TrimSpace(query.Get("to")),
		Limit: query.Get("limit"),
	}
	if err := h.validateRequest(req); err != nil {
		h.fail(w, r, opGetLogs, err)
		return
	}

	log, err := h.service.GetLogs(r.Context(), domain.GetLogsInput{
		UserID: userID,
		From:   req.From,
		To:     req.To,
		Limit:  parseLimit(req.Limit),
	})
	if err != nil {
		h.fail(w, r, opGetLogs, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogView(*log))
}

type operation struct {
	name           string
	storageMessage string
	soft           bool // compat mode answers 200 {"message"}
	legacy         bool // compat mode applies at all
}

var (
	opCreateUser  = operation{name: "create_user", storageMessage: "error saving user to the database", legacy: true}
	opListUsers   = operation{name: "list_users", storageMessage: "error fetching users", legacy: true}
	opAddExercise = operation{name: "add_exercise", storageMessage: "exercise creation failed", soft: true, legacy: true}
	opGetLogs     = operation{name: "get_logs", storageMessage: "error fetching exercise log"}
)

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op operation, err error) {
	logger := logging.FromContext(r.Context()).With("operation", op.name)

	var (
		status  int
		code    string
		message string
	)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		status, code, message = http.StatusNotFound, "not_found", domain.ErrUserNotFound.Error()
		logger.Info("user not found", "user_id", r.PathValue("_id"))
	case errors.Is(err, domain.ErrValidation):
		status, code, message = http.StatusBadRequest, "validation_failed", err.Error()
		logger.Info("rejected request", "error", err)
	default:
		status, code, message = http.StatusInternalServerError, "server_error", op.storageMessage
		logger.Error("request failed", "error", err)
	}

	if h.compat && op.legacy {
		switch {
		case op.soft && status == http.StatusNotFound:
			writeJSON(w, http.StatusOK, map[string]string{"message": message})
			return
		case op.soft:
			writeJSON(w, http.StatusOK, map[string]string{"message": op.storageMessage})
			return
		case status == http.StatusInternalServerError:
			writeJSON(w, status, map[string]string{"error": message})
			return
		}
	}
	writeError(w, status, code, message)
}
