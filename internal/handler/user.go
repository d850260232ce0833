package handler

import (
	"net/http"

	"github.com/Dan9191/card-service/internal/utils"
)

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err, "Failed to register user")
		return
	}

	res, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "Failed to register user")
		return
	}

	utils.Respond(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    res.User,
		"token":   res.Token,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err, "Failed to login")
		return
	}

	res, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err, "Failed to login")
		return
	}

	utils.Respond(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    res.User,
		"token":   res.Token,
	})
}

// Profile returns the authenticated user
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to get user profile")
		return
	}

	user, err := h.users.GetProfile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to get user profile")
		return
	}
	utils.Respond(w, http.StatusOK, map[string]interface{}{"user": user})
}

// ListUsers returns every registered user
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get users")
		return
	}
	utils.Respond(w, http.StatusOK, map[string]interface{}{"users": users})
}
