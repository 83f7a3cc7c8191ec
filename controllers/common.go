package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// renderError maps a service error onto a status and numeric code. Anything
// unrecognised is logged and reported as a 500 with fallbackCode.
func renderError(ctx *gin.Context, err error, fallbackCode int, fallbackMsg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40301, err.Error())
	case errors.Is(err, services.ErrInvalidOperation):
		utils.Error(ctx, http.StatusBadRequest, 40040, err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40020, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40901, err.Error())
	default:
		utils.Sugar.Errorf("%s path=%s err=%v", fallbackMsg, ctx.Request.URL.Path, err)
		utils.Error(ctx, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}

// currentUser loads the authenticated user. It returns nil for anonymous
// requests and for tokens whose user no longer exists.
func currentUser(ctx *gin.Context, users *services.UserService) (*models.User, error) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		return nil, nil
	}
	user, err := users.ByID(ctx.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func isAdmin(ctx *gin.Context, admins func(string) bool) bool {
	name, _ := ctx.Get(middleware.ContextUsernameKey)
	username, _ := name.(string)
	return username != "" && admins(username)
}
