package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// PageViewRecorder counts successful GET reads of feeds and posts per day and path.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		path := c.Request.URL.Path
		if !countsAsPageView(path) {
			return
		}

		now := time.Now().In(time.Local)
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
		}).Create(&models.PageView{Date: day, Path: path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Debugf("record page view path=%s err=%v", path, err)
		}
	}
}

// countsAsPageView keeps auth, stats and media traffic out of the counters.
func countsAsPageView(path string) bool {
	if !strings.HasPrefix(path, "/api/v1/") {
		return false
	}
	if strings.HasPrefix(path, "/api/v1/auth/") || strings.HasPrefix(path, "/api/v1/upload") {
		return false
	}
	return !strings.Contains(path, "/stats")
}
