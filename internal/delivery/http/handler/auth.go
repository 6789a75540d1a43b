package handler

import (
	"errors"
	"net/http"

	"github.com/mkravec/product-catalog/internal/delivery/http/request"
	"github.com/mkravec/product-catalog/internal/delivery/http/response"
	"github.com/mkravec/product-catalog/internal/domain"
	"github.com/mkravec/product-catalog/internal/pkg/logger"
	"github.com/mkravec/product-catalog/internal/usecase/auth"
)

// AuthHandler handles HTTP requests for registration and login
type AuthHandler struct {
	service *auth.Service
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  log,
	}
}

// Register handles POST /api/v1/auth/register
// @Summary Register a new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body auth.Credentials true "Name, email and password"
// @Success 201 {object} response.Envelope "User registered"
// @Failure 400 {object} response.Envelope "Invalid input or email already registered"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := request.DecodeJSON(r, &creds); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.Register(r.Context(), creds)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, "User registered successfully", session)
}

// Login handles POST /api/v1/auth/login
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body auth.Credentials true "Email and password"
// @Success 200 {object} response.Envelope "Session with token"
// @Failure 400 {object} response.Envelope "Invalid input"
// @Failure 401 {object} response.Envelope "Invalid credentials"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := request.DecodeJSON(r, &creds); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.Login(r.Context(), creds)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, "Logged in successfully", session)
}

func (h *AuthHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		h.logger.Error("Internal error in auth handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
