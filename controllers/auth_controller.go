package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	users     *services.UserService
	issuer    *utils.TokenIssuer
	blacklist *utils.TokenBlacklist
	admins    func(string) bool
}

// NewAuthController creates an AuthController. admins reports whether a username is an administrator.
func NewAuthController(users *services.UserService, issuer *utils.TokenIssuer, blacklist *utils.TokenBlacklist, admins func(string) bool) *AuthController {
	return &AuthController{users: users, issuer: issuer, blacklist: blacklist, admins: admins}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and logs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), services.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		renderError(ctx, err, 50003, "failed to create user")
		return
	}
	a.issue(ctx, http.StatusCreated, user)
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.Authenticate(ctx.Request.Context(), services.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
			return
		}
		renderError(ctx, err, 50004, "failed to load user")
		return
	}
	a.issue(ctx, http.StatusOK, user)
}

// Logout revokes the caller's token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := a.issuer.Parse(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(72 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := a.blacklist.Add(ctx.Request.Context(), token, expiresAt); err != nil {
		utils.Sugar.Errorf("blacklist token user=%d err=%v", claims.UserID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to revoke token")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := currentUser(ctx, a.users)
	if err != nil {
		renderError(ctx, err, 50006, "failed to load user")
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	count, err := a.users.PostCount(ctx.Request.Context(), user)
	if err != nil {
		renderError(ctx, err, 50006, "failed to load user")
		return
	}
	resp := a.userResponse(*user)
	resp["posts_count"] = count
	utils.Success(ctx, resp)
}

func (a *AuthController) issue(ctx *gin.Context, status int, user *models.User) {
	token, expiresAt, err := a.issuer.Issue(user.ID, user.Username)
	if err != nil {
		utils.Sugar.Errorf("sign token user=%d err=%v", user.ID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Respond(ctx, status, 0, "success", gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       a.userResponse(*user),
	})
}

func (a *AuthController) userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"is_admin":   a.admins(user.Username),
	}
}
