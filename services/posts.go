package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cppla/yatube/events"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// detailTitleLen is how much post text the detail page uses as its title.
const detailTitleLen = 30

var validate = validator.New()

// PostInput is the author-editable part of a post.
type PostInput struct {
	Text      string `json:"text" validate:"required,max=10000"`
	GroupSlug string `json:"group" validate:"omitempty,max=100"`
	Image     string `json:"image" validate:"omitempty,max=1024"`
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// PostDetail is a single post with everything its page shows.
type PostDetail struct {
	Post       models.Post      `json:"post"`
	Title      string           `json:"title"`
	PostsCount int64            `json:"posts_count"`
	Comments   []models.Comment `json:"comments"`
}

// PostService creates, edits and comments on posts.
type PostService struct {
	db     *gorm.DB
	events events.Publisher
	now    func() time.Time
}

// NewPostService builds the service; a nil clock means time.Now.
func NewPostService(db *gorm.DB, pub events.Publisher, now func() time.Time) *PostService {
	if now == nil {
		now = time.Now
	}
	return &PostService{db: db, events: pub, now: now}
}

// Create stores a new post by author.
func (s *PostService) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	if author == nil {
		return nil, ErrUnauthorized
	}
	in, err := cleanPostInput(in)
	if err != nil {
		return nil, err
	}
	groupID, err := s.resolveGroup(ctx, in.GroupSlug)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Text:      in.Text,
		CreatedAt: s.now(),
		AuthorID:  author.ID,
		GroupID:   groupID,
		Image:     in.Image,
	}
	if err := s.db.WithContext(ctx).Omit("Author", "Group").Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	publish(ctx, s.events, events.Event{Type: events.PostCreated, ActorID: author.ID, PostID: post.ID, At: post.CreatedAt})
	return s.Get(ctx, post.ID)
}

// Edit replaces text and group of a post and, when given, its image.
// Only the author may edit; created_at never changes.
func (s *PostService) Edit(ctx context.Context, actor *models.User, postID uint, in PostInput) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	in, err = cleanPostInput(in)
	if err != nil {
		return nil, err
	}
	groupID, err := s.resolveGroup(ctx, in.GroupSlug)
	if err != nil {
		return nil, err
	}

	image := post.Image
	if in.Image != "" {
		image = in.Image
	}
	err = s.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("Text", "GroupID", "Image").
		Updates(models.Post{Text: in.Text, GroupID: groupID, Image: image}).Error
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", post.ID, err)
	}
	publish(ctx, s.events, events.Event{Type: events.PostEdited, ActorID: actor.ID, PostID: post.ID, At: s.now()})
	return s.Get(ctx, post.ID)
}

// Get loads one post with its author and group.
func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, postID).Error
	if err != nil {
		return nil, notFound(err, "post %d", postID)
	}
	return &post, nil
}

// Detail loads a post, its comments oldest first, and the author's post count.
func (s *PostService) Detail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments := []models.Comment{}
	err = s.db.WithContext(ctx).Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", post.ID, err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count posts of user %d: %w", post.AuthorID, err)
	}

	return &PostDetail{
		Post:       *post,
		Title:      models.Truncate(post.Text, detailTitleLen),
		PostsCount: count,
		Comments:   comments,
	}, nil
}

// AddComment attaches a comment by actor to the post.
func (s *PostService) AddComment(ctx context.Context, actor *models.User, postID uint, in CommentInput) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	in.Text = utils.SanitizeText(in.Text)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	comment := models.Comment{
		PostID:    post.ID,
		AuthorID:  actor.ID,
		Text:      in.Text,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Omit("Author").Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *actor
	publish(ctx, s.events, events.Event{Type: events.CommentCreated, ActorID: actor.ID, PostID: post.ID, At: comment.CreatedAt})
	return &comment, nil
}

func (s *PostService) resolveGroup(ctx context.Context, slug string) (*uint, error) {
	if slug == "" {
		return nil, nil
	}
	var group models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, notFound(err, "group %q", slug)
	}
	return &group.ID, nil
}

func cleanPostInput(in PostInput) (PostInput, error) {
	in.Text = utils.SanitizeText(in.Text)
	if err := validate.Struct(in); err != nil {
		return in, validationError(err)
	}
	return in, nil
}

// validationError names the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s failed %s", ErrValidation, verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
