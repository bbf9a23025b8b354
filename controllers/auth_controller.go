package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// AuthController handles registration, login and the current session.
type AuthController struct {
	auth      *services.AuthService
	blacklist *utils.TokenBlacklist
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *services.AuthService, blacklist *utils.TokenBlacklist) *AuthController {
	return &AuthController{auth: auth, blacklist: blacklist}
}

// authResponse is the user document followed by its access token.
type authResponse struct {
	*models.User
	Token string `json:"token"`
}

// Register creates an account and signs the caller in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=5"`
		FullName  string `json:"fullName" binding:"required,min=3"`
		AvatarURL string `json:"avatarUrl" binding:"omitempty,url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	user, token, err := a.auth.Register(ctx.Request.Context(), services.RegisterInput{
		FullName:  utils.SanitizePlain(req.FullName),
		Email:     req.Email,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		utils.Error(ctx, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, utils.ErrPasswordTooLong):
		utils.Error(ctx, http.StatusBadRequest, "password is too long")
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, "failed to register")
		return
	}
	utils.Success(ctx, authResponse{User: user, Token: token})
}

// Login verifies the credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=5"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}

	user, token, err := a.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			// same answer for an unknown email and a wrong password
			utils.Error(ctx, http.StatusBadRequest, "invalid login or password")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "failed to login")
		return
	}
	utils.Success(ctx, authResponse{User: user, Token: token})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "no access")
		return
	}

	user, err := a.auth.Me(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "failed to load user")
		return
	}
	utils.Success(ctx, user)
}

// Logout revokes the bearer token until it would have expired anyway.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, _ := ctx.Get(middleware.ContextClaimsKey)
	c, ok := claims.(*utils.Claims)
	if token == "" || !ok {
		utils.Error(ctx, http.StatusUnauthorized, "no access")
		return
	}

	expiresAt := time.Now().Add(time.Hour)
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.Time
	}
	if err := a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt); err != nil {
		utils.Sugar.Errorf("revoke token failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to logout")
		return
	}
	utils.Done(ctx)
}
