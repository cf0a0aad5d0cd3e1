package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/auth"
	"github.com/rapidaid/rapidaid/internal/middleware"
	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	FullName string     `json:"full_name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Phone    string     `json:"phone"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     types.Role `json:"role" binding:"omitempty,oneof=citizen donor"`
}

type CreateStaffRequest struct {
	FullName string     `json:"full_name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Phone    string     `json:"phone"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     types.Role `json:"role" binding:"required,oneof=citizen admin rescue_team assessment_team donor"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email" binding:"omitempty,email"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"omitempty,min=8"`
}

type DeactivateAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID       uint       `json:"id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone,omitempty"`
	Role     types.Role `json:"role"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

type AuthHandler struct {
	db           *gorm.DB
	tokens       *auth.JWT
	logger       *zap.Logger
	cookieDomain string
}

func NewAuthHandler(db *gorm.DB, tokens *auth.JWT, logger *zap.Logger, cookieDomain string) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, logger: logger, cookieDomain: cookieDomain}
}

// createUser returns (nil, nil) when the email is taken.
func (h *AuthHandler) createUser(ctx *gin.Context, fullName, email, phone, password string, role types.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existingUser models.User

	err := h.db.WithContext(ctx.Request.Context()).Where("email = ?", email).First(&existingUser).Error

	if err == nil {
		return nil, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return nil, err
	}

	newUser := models.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		Phone:        phone,
		PasswordHash: string(passwordHash),
		Role:         role,
		IsActive:     true,
	}

	if err := h.db.WithContext(ctx.Request.Context()).Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil
		}
		return nil, err
	}

	return &newUser, nil
}

func (h *AuthHandler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) issueToken(ctx *gin.Context, user *models.User, status int) {
	token, err := h.tokens.Generate(user.ID, user.Email, user.Role)

	if err != nil {
		h.logger.Error("Failed to generate JWT", zap.Error(err), zap.Uint("user_id", user.ID))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setTokenCookie(ctx, token, int(h.tokens.TTL().Seconds()))

	ctx.JSON(status, gin.H{
		"user":  newUserResponse(user),
		"token": token,
	})
}

// Register signs up citizens and donors. Staff accounts come from admins.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !bindJSON(ctx, h.logger, &req) {
		return
	}

	role := req.Role
	if role == "" {
		role = types.RoleCitizen
	}

	user, err := h.createUser(ctx, req.FullName, req.Email, req.Phone, req.Password, role)

	if err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if user == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		return
	}

	h.issueToken(ctx, user, http.StatusCreated)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginUserRequest

	if !bindJSON(ctx, h.logger, &req) {
		return
	}

	var existingUser models.User

	email := strings.ToLower(strings.TrimSpace(req.Email))
	err := h.db.WithContext(ctx.Request.Context()).Where("email = ?", email).First(&existingUser).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		h.logger.Error("Database error when fetching user", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	if !existingUser.IsActive {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	h.issueToken(ctx, &existingUser, http.StatusOK)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var user models.User

	if err := h.db.WithContext(ctx.Request.Context()).First(&user, principal.ID).Error; err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": newUserResponse(&user)})
}

func (h *AuthHandler) CreateStaff(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	if !principal.IsAdmin() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can create accounts"})
		return
	}

	var req CreateStaffRequest

	if !bindJSON(ctx, h.logger, &req) {
		return
	}

	user, err := h.createUser(ctx, req.FullName, req.Email, req.Phone, req.Password, req.Role)

	if err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if user == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

func (h *AuthHandler) ListUsers(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	if !principal.IsAdmin() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can list users"})
		return
	}

	query := h.db.WithContext(ctx.Request.Context()).Order("id ASC")

	if role := ctx.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User

	if err := query.Find(&users).Error; err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for i := range users {
		response = append(response, newUserResponse(&users[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"users": response})
}

// UpdateMe changes the caller's own profile. A new password needs the current
// one.
func (h *AuthHandler) UpdateMe(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var dbUser models.User

	if err := h.db.WithContext(ctx.Request.Context()).First(&dbUser, principal.ID).Error; err != nil {
		h.logger.Error("Failed to fetch user", zap.Error(err), zap.Uint("user_id", principal.ID))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req UpdateProfileRequest

	if !bindJSON(ctx, h.logger, &req) {
		return
	}

	updates := make(map[string]interface{})

	if name := strings.TrimSpace(req.FullName); name != "" {
		updates["full_name"] = name
	}

	if req.Phone != "" {
		updates["phone"] = strings.TrimSpace(req.Phone)
	}

	if req.Email != "" {
		newEmail := strings.ToLower(strings.TrimSpace(req.Email))

		if newEmail != dbUser.Email {
			var existingUser models.User
			err := h.db.WithContext(ctx.Request.Context()).
				Where("email = ? AND id != ?", newEmail, dbUser.ID).
				First(&existingUser).Error
			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				h.logger.Error("Database error when checking existing email", zap.Error(err))
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		updates["email"] = newEmail
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is required to change password"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
			return
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			h.logger.Error("Failed to hash new password", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		updates["password_hash"] = string(passwordHash)
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := h.db.WithContext(ctx.Request.Context()).Model(&dbUser).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
			return
		}
		h.logger.Error("Failed to update user", zap.Error(err), zap.Uint("user_id", dbUser.ID))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.db.WithContext(ctx.Request.Context()).First(&dbUser, dbUser.ID).Error; err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    newUserResponse(&dbUser),
	})
}

// DeactivateMe disables the caller's account after a password check. The row
// stays so incidents, donations and ledger entries keep their author.
func (h *AuthHandler) DeactivateMe(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var req DeactivateAccountRequest

	if !bindJSON(ctx, h.logger, &req) {
		return
	}

	var dbUser models.User

	if err := h.db.WithContext(ctx.Request.Context()).First(&dbUser, principal.ID).Error; err != nil {
		h.logger.Error("Failed to fetch user", zap.Error(err), zap.Uint("user_id", principal.ID))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid password"})
		return
	}

	if err := h.db.WithContext(ctx.Request.Context()).Model(&dbUser).Update("is_active", false).Error; err != nil {
		h.logger.Error("Failed to deactivate user", zap.Error(err), zap.Uint("user_id", dbUser.ID))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Account deactivated"})
}

func (h *AuthHandler) GetUser(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	if !principal.IsAdmin() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can view users"})
		return
	}

	userID, ok := pathID(ctx, "user_id")

	if !ok {
		return
	}

	var user models.User

	err := h.db.WithContext(ctx.Request.Context()).First(&user, userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":      newUserResponse(&user),
		"is_active": user.IsActive,
	})
}
