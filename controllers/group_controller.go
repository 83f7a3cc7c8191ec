package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// GroupController lists and creates groups.
type GroupController struct {
	groups *services.GroupService
	admins func(string) bool
}

func NewGroupController(groups *services.GroupService, admins func(string) bool) *GroupController {
	return &GroupController{groups: groups, admins: admins}
}

// ListGroups returns every group.
func (g *GroupController) ListGroups(ctx *gin.Context) {
	groups, err := g.groups.List(ctx.Request.Context())
	if err != nil {
		renderError(ctx, err, 50050, "failed to list groups")
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// GetGroup returns one group by slug.
func (g *GroupController) GetGroup(ctx *gin.Context) {
	group, err := g.groups.BySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		renderError(ctx, err, 50052, "failed to load group")
		return
	}
	utils.Success(ctx, group)
}

// CreateGroup adds a group. Only administrators may call it.
func (g *GroupController) CreateGroup(ctx *gin.Context) {
	if !isAdmin(ctx, g.admins) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin only")
		return
	}
	var req services.GroupInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	group, err := g.groups.Create(ctx.Request.Context(), req)
	if err != nil {
		renderError(ctx, err, 50051, "failed to create group")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", group)
}
