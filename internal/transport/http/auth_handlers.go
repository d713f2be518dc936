package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mlazarev/chatd/internal/auth"
	"github.com/mlazarev/chatd/internal/store"
)

// AuthHandlers provides HTTP handlers for registration, login and identity.
type AuthHandlers struct {
	authService *auth.Service
	store       store.UserStore
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, st store.UserStore, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		store:       st,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// Register handles user registration.
// POST /register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		abortValidation(c, req, err)
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"email": {"The email has already been taken."}},
			})
		case errors.Is(err, auth.ErrInvalidName):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"name": {"The name field is invalid."}},
			})
		case errors.Is(err, auth.ErrInvalidEmail):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"email": {"The email must be a valid email address."}},
			})
		case errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"password": {"The password must be at least 8 characters."}},
			})
		default:
			h.log.Error().Err(err).Str("email", req.Email).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("user registered")
	c.JSON(http.StatusCreated, AuthResponse{User: userToResponse(user), Token: token})
}

// Login handles user login. Each successful login mints an additional
// valid token.
// POST /login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		abortValidation(c, req, err)
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// Generic per-field message; never reveal which part was wrong.
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"email": {"Provided credentials are incorrect."}},
			})
			return
		}
		h.log.Error().Err(err).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	c.JSON(http.StatusOK, AuthResponse{User: userToResponse(user), Token: token})
}

// Me returns the caller's identity.
// GET /user
func (h *AuthHandlers) Me(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}
