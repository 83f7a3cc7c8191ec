package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// StatsController provides site counters.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts. A failing counter reports 0 instead of failing the endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	count := func(model interface{}) int64 {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			utils.Sugar.Warnf("stats count %T failed err=%v", model, err)
			return 0
		}
		return n
	}

	var todayViews int64
	now := time.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayViews).Error; err != nil {
		todayViews = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":    count(&models.User{}),
		"group_count":   count(&models.Group{}),
		"post_count":    count(&models.Post{}),
		"comment_count": count(&models.Comment{}),
		"follow_count":  count(&models.Follow{}),
		"today_views":   todayViews,
	})
}

// GetPostStats returns page views and comment count for a post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	id := ctx.Param("id")
	db := s.db.WithContext(ctx.Request.Context())

	var pv int64
	if err := db.Model(&models.PageView{}).
		Where("path = ?", "/api/v1/posts/"+id).
		Select("COALESCE(SUM(count),0)").
		Scan(&pv).Error; err != nil {
		pv = 0
	}

	var commentsCount int64
	if err := db.Model(&models.Comment{}).Where("post_id = ?", id).Count(&commentsCount).Error; err != nil {
		commentsCount = 0
	}

	utils.Success(ctx, gin.H{
		"pv":             pv,
		"comments_count": commentsCount,
	})
}
