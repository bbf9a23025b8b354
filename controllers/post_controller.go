package controllers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// PostController exposes the post service over HTTP.
type PostController struct {
	posts   *services.PostService
	metrics *middleware.Metrics
}

// NewPostController creates a new PostController instance. metrics may be nil.
func NewPostController(posts *services.PostService, metrics *middleware.Metrics) *PostController {
	return &PostController{posts: posts, metrics: metrics}
}

// minPostFieldLen applies to title and text after sanitizing.
const minPostFieldLen = 3

// postRequest is the body of POST /posts and PATCH /posts/:id.
type postRequest struct {
	Title    string `json:"title" binding:"required,min=3"`
	Text     string `json:"text" binding:"required,min=3"`
	Tags     string `json:"tags"`
	ImageURL string `json:"imageUrl"`
}

// input sanitizes the request. It reports a message when the title or text
// is too short once markup has been removed.
func (r postRequest) input() (services.PostInput, string) {
	in := services.PostInput{
		Title:    utils.SanitizePlain(r.Title),
		Text:     strings.TrimSpace(utils.SanitizeRich(r.Text)),
		ImageURL: strings.TrimSpace(r.ImageURL),
		Tags:     r.Tags,
	}
	if utf8.RuneCountInString(in.Title) < minPostFieldLen {
		return in, "title must be at least 3 characters"
	}
	if utf8.RuneCountInString(in.Text) < minPostFieldLen {
		return in, "text must be at least 3 characters"
	}
	return in, ""
}

// ListPosts returns all posts, newest first or most viewed first with sortBy=popular.
func (p *PostController) ListPosts(ctx *gin.Context) {
	sortBy := ctx.DefaultQuery("sortBy", services.SortNew)
	posts, err := p.posts.List(ctx.Request.Context(), sortBy)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to load posts")
		return
	}
	utils.Success(ctx, posts)
}

// LastTags returns the tag sample.
func (p *PostController) LastTags(ctx *gin.Context) {
	tags, err := p.posts.RecentTags(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to load tags")
		return
	}
	utils.Success(ctx, tags)
}

// GetPost counts a view and returns the post after the increment.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			utils.Error(ctx, http.StatusNotFound, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "failed to load post")
		return
	}
	if p.metrics != nil {
		p.metrics.PostViews.Inc()
	}
	utils.Success(ctx, post)
}

// CreatePost stores a post authored by the caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "no access")
		return
	}
	input, msg := req.input()
	if msg != "" {
		utils.Error(ctx, http.StatusBadRequest, msg)
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), userID, input)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to create post")
		return
	}
	utils.Success(ctx, post)
}

// UpdatePost overwrites every editable field of the post and makes the caller its author.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, err)
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "no access")
		return
	}
	input, msg := req.input()
	if msg != "" {
		utils.Error(ctx, http.StatusBadRequest, msg)
		return
	}

	if err := p.posts.Update(ctx.Request.Context(), ctx.Param("id"), userID, input); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			utils.Error(ctx, http.StatusNotFound, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "failed to update post")
		return
	}
	utils.Done(ctx)
}

// DeletePost removes a post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	if err := p.posts.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			utils.Error(ctx, http.StatusNotFound, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "failed to delete post")
		return
	}
	utils.Done(ctx)
}

func getUserID(ctx *gin.Context) (string, bool) {
	id := middleware.UserID(ctx)
	return id, id != ""
}
