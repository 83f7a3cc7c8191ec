package controllers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// FeedController serves the paginated post feeds.
type FeedController struct {
	selector *services.FeedSelector
	follows  *services.FollowGraph
	users    *services.UserService
	cache    *utils.FeedCache
	pageSize int
}

// NewFeedController creates a FeedController. The index feed is served through cache.
func NewFeedController(selector *services.FeedSelector, follows *services.FollowGraph, users *services.UserService, cache *utils.FeedCache, pageSize int) *FeedController {
	return &FeedController{selector: selector, follows: follows, users: users, cache: cache, pageSize: pageSize}
}

// Index returns the newest posts of every author. Rendered pages are reused
// until the cache entry expires, so new posts may appear late. Pages are
// keyed by their clamped number, so at most num_pages entries exist.
func (f *FeedController) Index(ctx *gin.Context) {
	numPages, err := f.indexPages(ctx.Request.Context())
	if err != nil {
		renderError(ctx, err, 50021, "failed to list posts")
		return
	}
	page := utils.ClampPage(utils.ParsePage(ctx.Query("page")), numPages)
	key := f.cache.Key("page=" + strconv.Itoa(page))

	body, err := f.cache.GetOrCompute(ctx.Request.Context(), key, func() ([]byte, error) {
		view, err := f.render(ctx, services.ScopeAll(), page, nil)
		if err != nil {
			return nil, err
		}
		return utils.RenderSuccess(view)
	})
	if err != nil {
		renderError(ctx, err, 50021, "failed to list posts")
		return
	}
	utils.SuccessBytes(ctx, body)
}

// indexPages returns the page count of the index feed, cached alongside the pages.
func (f *FeedController) indexPages(ctx context.Context) (int, error) {
	raw, err := f.cache.GetOrCompute(ctx, f.cache.Key("num_pages"), func() ([]byte, error) {
		feed, err := f.selector.Select(ctx, services.ScopeAll())
		if err != nil {
			return nil, err
		}
		total, err := feed.Posts.Len(ctx)
		if err != nil {
			return nil, err
		}
		return []byte(strconv.Itoa(utils.NumPages(total, f.pageSize))), nil
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}

// Group returns the posts of one group.
func (f *FeedController) Group(ctx *gin.Context) {
	view, err := f.render(ctx, services.ScopeGroup(ctx.Param("slug")), utils.ParsePage(ctx.Query("page")), nil)
	if err != nil {
		renderError(ctx, err, 50022, "failed to list group posts")
		return
	}
	utils.Success(ctx, view)
}

// Profile returns one author's posts and whether the caller follows them.
func (f *FeedController) Profile(ctx *gin.Context) {
	viewer, err := currentUser(ctx, f.users)
	if err != nil {
		renderError(ctx, err, 50023, "failed to load user")
		return
	}

	view, err := f.render(ctx, services.ScopeAuthor(ctx.Param("username")), utils.ParsePage(ctx.Query("page")), func(feed *services.Feed, view gin.H) error {
		following, err := f.follows.IsFollowing(ctx.Request.Context(), viewer, feed.Author)
		view["following"] = following
		return err
	})
	if err != nil {
		renderError(ctx, err, 50024, "failed to list user posts")
		return
	}
	utils.Success(ctx, view)
}

// Subscriptions returns posts by the authors the caller follows. author is
// the caller.
func (f *FeedController) Subscriptions(ctx *gin.Context) {
	viewer, err := currentUser(ctx, f.users)
	if err != nil {
		renderError(ctx, err, 50023, "failed to load user")
		return
	}
	view, err := f.render(ctx, services.ScopeSubscriptions(viewer), utils.ParsePage(ctx.Query("page")), func(_ *services.Feed, view gin.H) error {
		view["author"] = viewer
		return nil
	})
	if err != nil {
		renderError(ctx, err, 50025, "failed to list followed posts")
		return
	}
	utils.Success(ctx, view)
}

// render selects the feed, cuts the requested page and builds the response
// body. extra may add scope specific fields.
func (f *FeedController) render(ctx *gin.Context, scope services.Scope, page int, extra func(*services.Feed, gin.H) error) (gin.H, error) {
	feed, err := f.selector.Select(ctx.Request.Context(), scope)
	if err != nil {
		return nil, err
	}
	p, err := utils.Paginate[models.Post](ctx.Request.Context(), feed.Posts, f.pageSize, page)
	if err != nil {
		return nil, err
	}

	view := gin.H{
		"items": p.Items,
		"pagination": gin.H{
			"page":      p.Number,
			"num_pages": p.NumPages,
			"total":     p.Total,
			"has_next":  p.HasNext,
			"has_prev":  p.HasPrev,
		},
	}
	if feed.Group != nil {
		view["group"] = feed.Group
	}
	if feed.Author != nil {
		view["author"] = feed.Author
		view["posts_count"] = p.Total
	}
	if extra != nil {
		if err := extra(feed, view); err != nil {
			return nil, err
		}
	}
	return view, nil
}
