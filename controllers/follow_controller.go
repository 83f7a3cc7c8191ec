package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// FollowController manages subscriptions between users.
type FollowController struct {
	follows *services.FollowGraph
	users   *services.UserService
}

func NewFollowController(follows *services.FollowGraph, users *services.UserService) *FollowController {
	return &FollowController{follows: follows, users: users}
}

// Follow subscribes the caller to :username. Repeating it changes nothing.
func (f *FollowController) Follow(ctx *gin.Context) {
	f.change(ctx, f.follows.Follow)
}

// Unfollow removes the subscription to :username, if any.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	f.change(ctx, f.follows.Unfollow)
}

// Following lists the authors the caller is subscribed to.
func (f *FollowController) Following(ctx *gin.Context) {
	user, err := currentUser(ctx, f.users)
	if err != nil {
		renderError(ctx, err, 50042, "failed to load user")
		return
	}
	if user == nil {
		renderError(ctx, services.ErrUnauthorized, 0, "")
		return
	}
	authors, err := f.follows.FollowedAuthors(ctx.Request.Context(), user)
	if err != nil {
		renderError(ctx, err, 50043, "failed to list followed authors")
		return
	}
	utils.Success(ctx, gin.H{"items": authors})
}

func (f *FollowController) change(ctx *gin.Context, op func(context.Context, *models.User, *models.User) error) {
	user, err := currentUser(ctx, f.users)
	if err != nil {
		renderError(ctx, err, 50040, "failed to load user")
		return
	}
	author, err := f.users.ByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		renderError(ctx, err, 50040, "failed to load user")
		return
	}
	if err := op(ctx.Request.Context(), user, author); err != nil {
		renderError(ctx, err, 50041, "failed to update subscription")
		return
	}

	following, err := f.follows.IsFollowing(ctx.Request.Context(), user, author)
	if err != nil {
		renderError(ctx, err, 50041, "failed to update subscription")
		return
	}
	utils.Success(ctx, gin.H{"author": author.Username, "following": following})
}
