package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
)

// GroupInput describes a new group.
type GroupInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=100,username"`
	Description string `json:"description" validate:"max=5000"`
}

// GroupService manages the group catalogue. Groups are created by admins.
type GroupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

// List returns every group ordered by title.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	if err := s.db.WithContext(ctx).Order("title ASC").Order("id ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// BySlug loads one group; an unknown slug is ErrNotFound.
func (s *GroupService) BySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, notFound(err, "group %q", slug)
	}
	return &group, nil
}

// Create adds a group. A taken slug is ErrConflict.
func (s *GroupService) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("slug = ?", in.Slug).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("group %q: %w", in.Slug, ErrConflict)
	}

	group := models.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &group, nil
}
