package controllers

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

const maxImageSize = 10 * 1024 * 1024

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// PostController manages posts, comments and image uploads.
type PostController struct {
	posts       *services.PostService
	users       *services.UserService
	mediaRoot   string
	mediaPrefix string
}

// NewPostController creates a new PostController instance. Uploaded images are
// stored under mediaRoot and served below mediaPrefix.
func NewPostController(posts *services.PostService, users *services.UserService, mediaRoot, mediaPrefix string) *PostController {
	return &PostController{posts: posts, users: users, mediaRoot: mediaRoot, mediaPrefix: strings.TrimSuffix(mediaPrefix, "/")}
}

type postRequest struct {
	Text  string `json:"text" binding:"required"`
	Group string `json:"group"`
	Image string `json:"image"`
}

// CreatePost publishes a new post by the caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	user, err := currentUser(ctx, p.users)
	if err != nil {
		renderError(ctx, err, 50023, "failed to load user")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), user, services.PostInput{Text: req.Text, GroupSlug: req.Group, Image: req.Image})
	if err != nil {
		renderError(ctx, err, 50020, "failed to create post")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", post)
}

// GetPost returns a post with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	detail, err := p.posts.Detail(ctx.Request.Context(), id)
	if err != nil {
		renderError(ctx, err, 50023, "failed to load post")
		return
	}
	utils.Success(ctx, detail)
}

// UpdatePost lets the author change a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}
	user, err := currentUser(ctx, p.users)
	if err != nil {
		renderError(ctx, err, 50023, "failed to load user")
		return
	}

	post, err := p.posts.Edit(ctx.Request.Context(), user, id, services.PostInput{Text: req.Text, GroupSlug: req.Group, Image: req.Image})
	if err != nil {
		renderError(ctx, err, 50026, "failed to update post")
		return
	}
	utils.Success(ctx, post)
}

// CreateComment adds a comment to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	user, err := currentUser(ctx, p.users)
	if err != nil {
		renderError(ctx, err, 50023, "failed to load user")
		return
	}

	comment, err := p.posts.AddComment(ctx.Request.Context(), user, id, services.CommentInput{Text: req.Text})
	if err != nil {
		renderError(ctx, err, 50025, "failed to create comment")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", comment)
}

// UploadImage stores an image under the media root and returns the reference
// to put into a post's image field.
func (p *PostController) UploadImage(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 10MB")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		utils.Error(ctx, http.StatusBadRequest, 40031, "unsupported image type")
		return
	}
	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	if !strings.HasPrefix(http.DetectContentType(sniff[:n]), "image/") {
		utils.Error(ctx, http.StatusBadRequest, 40031, "unsupported image type")
		return
	}

	dir := filepath.Join(p.mediaRoot, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		utils.Sugar.Errorf("create media dir %s: %v", dir, err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create upload directory")
		return
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: io.MultiReader(bytes.NewReader(sniff[:n]), file), N: maxImageSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil || written > maxImageSize {
		_ = out.Close()
		_ = os.Remove(dst)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to write file")
			return
		}
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 10MB")
		return
	}

	ref := path.Join("posts", name)
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"image": ref, "url": p.mediaPrefix + "/" + ref})
}
