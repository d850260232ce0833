package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/card-service/internal/apperror"
	"github.com/Dan9191/card-service/internal/middleware"
	"github.com/Dan9191/card-service/internal/service"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/Dan9191/card-service/internal/validation"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	users     *service.UserService
	cards     *service.CardService
	validator *validation.Validator
	db        Pinger
	log       *logrus.Logger
}

func NewHandler(users *service.UserService, cards *service.CardService, v *validation.Validator, db Pinger, log *logrus.Logger) *Handler {
	return &Handler{users: users, cards: cards, validator: v, db: db, log: log}
}

// Index describes the service
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	utils.Respond(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to Online Card Application Web Service",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"users": "/api/users",
			"cards": "/api/cards",
		},
	})
}

// Health checks the database connection
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.WithError(err).Error("Health check failed")
		utils.Respond(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	utils.Respond(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// bind decodes the JSON body into dst and validates it. An empty body
// decodes to the zero value.
func (h *Handler) bind(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperror.BadRequest("Invalid request body")
	}
	return h.validator.Struct(dst)
}

// fail writes err to the client. Untyped errors become a 500 with the
// fallback message and are logged with their cause.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	appErr := apperror.From(err, fallback)
	if appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindUnavailable {
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error(fallback)
	}
	utils.RespondError(w, appErr)
}

// callerID returns the authenticated user id
func callerID(r *http.Request) (int64, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.Unauthorized("Access token required")
	}
	return id, nil
}

// cardID parses the {id} route variable. Anything but a positive integer
// cannot name a card.
func cardID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("Card not found")
	}
	return id, nil
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	utils.RespondError(w, apperror.NotFound("Route not found"))
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	utils.Respond(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}
