package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/middleware"
	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// UserHandler serves registration, login and credential updates.
type UserHandler struct {
	users      *database.UserRepository
	auth       *middleware.AuthMiddleware
	bcryptCost int
	logger     *logrus.Logger
}

func NewUserHandler(users *database.UserRepository, auth *middleware.AuthMiddleware, bcryptCost int, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		users:      users,
		auth:       auth,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type usernameUpdateRequest struct {
	NewUsername string `json:"new_username"`
}

type emailUpdateRequest struct {
	NewEmail string `json:"new_email"`
}

type passwordUpdateRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register handles POST /register.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "register", utils.NewValidationErrorf("invalid request body: %v", err))
		return
	}
	if err := validateUsername(req.Username); err != nil {
		respondError(c, "register", err)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		respondError(c, "register", err)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		respondError(c, "register", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		respondError(c, "register", err)
		return
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, "register", err)
		return
	}

	h.logger.WithField("username", user.Username).Info("User registered")
	respondCreated(c, gin.H{"user": user.PublicUser()})
}

// Login handles POST /login, returning a signed JWT on success.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "login", utils.NewValidationErrorf("invalid request body: %v", err))
		return
	}

	user, err := h.verifyCredentials(c, req.Username, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	token, err := h.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		respondError(c, "login", err)
		return
	}

	h.logger.WithField("username", user.Username).Info("User logged in")
	respondData(c, gin.H{
		"token": token,
		"user":  user.PublicUser(),
	})
}

// UpdateUsername handles POST /update_username for the authenticated user.
func (h *UserHandler) UpdateUsername(c *gin.Context) {
	var req usernameUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "update_username", utils.NewValidationErrorf("invalid request body: %v", err))
		return
	}
	if err := validateUsername(req.NewUsername); err != nil {
		respondError(c, "update_username", err)
		return
	}

	username := c.GetString("username")
	if err := h.users.UpdateUsername(c.Request.Context(), username, req.NewUsername); err != nil {
		respondError(c, "update_username", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"old_username": username,
		"new_username": req.NewUsername,
	}).Info("Username updated")
	respondData(c, gin.H{"username": req.NewUsername})
}

// UpdateEmail handles POST /update_useremail for the authenticated user.
func (h *UserHandler) UpdateEmail(c *gin.Context) {
	var req emailUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "update_useremail", utils.NewValidationErrorf("invalid request body: %v", err))
		return
	}
	if err := validateEmail(req.NewEmail); err != nil {
		respondError(c, "update_useremail", err)
		return
	}

	username := c.GetString("username")
	if err := h.users.UpdateEmail(c.Request.Context(), username, req.NewEmail); err != nil {
		respondError(c, "update_useremail", err)
		return
	}
	respondData(c, gin.H{"email": req.NewEmail})
}

// UpdatePassword handles POST /update_password for the authenticated user.
// The current password must verify and the new password must be confirmed.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req passwordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "update_password", utils.NewValidationErrorf("invalid request body: %v", err))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		respondError(c, "update_password", utils.NewValidationError("new password and confirmation do not match"))
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		respondError(c, "update_password", err)
		return
	}

	username := c.GetString("username")
	if _, err := h.verifyCredentials(c, username, req.CurrentPassword); err != nil {
		respondError(c, "update_password", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.bcryptCost)
	if err != nil {
		respondError(c, "update_password", err)
		return
	}
	if err := h.users.UpdatePasswordHash(c.Request.Context(), username, string(hash)); err != nil {
		respondError(c, "update_password", err)
		return
	}

	h.logger.WithField("username", username).Info("Password updated")
	respondData(c, gin.H{"updated": true})
}

func (h *UserHandler) verifyCredentials(c *gin.Context, username, password string) (*models.User, error) {
	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, utils.NewAuthenticationError("invalid credentials")
	}
	return user, nil
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return utils.NewValidationError("username must be between 3 and 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return utils.NewValidationErrorf("invalid email address %q", email)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return utils.NewValidationError("password must be at least 8 characters")
	}
	return nil
}
