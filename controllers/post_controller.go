package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/repositories"
	"github.com/yatube/yatube/utils"
)

// postForm is what post create and edit submit. Group is a slug; an empty
// slug means the post is not tagged to any group.
type postForm struct {
	Text  string `json:"text"`
	Group string `json:"group"`
	Image string `json:"image"`
}

// PostController serves the feeds and manages posts and comments.
type PostController struct {
	posts    repositories.PostRepository
	groups   repositories.GroupRepository
	users    repositories.UserRepository
	comments repositories.CommentRepository
	follows  repositories.FollowRepository
}

// NewPostController creates a new PostController instance.
func NewPostController(
	posts repositories.PostRepository,
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	comments repositories.CommentRepository,
	follows repositories.FollowRepository,
) *PostController {
	return &PostController{posts: posts, groups: groups, users: users, comments: comments, follows: follows}
}

// GlobalFeed returns the newest-first page over every post. The route is
// wrapped by the page cache middleware, so the same payload is replayed to
// every visitor within the cache window; nothing here may vary by viewer.
func (p *PostController) GlobalFeed(ctx *gin.Context) {
	total, err := p.countAll(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count posts")
		return
	}
	page := utils.Paginate(ctx.Query("page"), total)
	posts, _, err := p.posts.All(ctx.Request.Context(), page.Offset(), page.Size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}
	utils.Success(ctx, gin.H{"items": posts, "pagination": page})
}

// GroupFeed returns the page of posts tagged with the group resolved by slug.
func (p *PostController) GroupFeed(ctx *gin.Context) {
	group, err := p.groups.BySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(ctx)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load group")
		return
	}

	_, total, err := p.posts.ByGroup(ctx.Request.Context(), group.ID, 0, 1)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to count group posts")
		return
	}
	page := utils.Paginate(ctx.Query("page"), total)
	posts, _, err := p.posts.ByGroup(ctx.Request.Context(), group.ID, page.Offset(), page.Size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to list group posts")
		return
	}
	utils.Success(ctx, gin.H{"group": group, "items": posts, "pagination": page})
}

// Profile returns the author's page of posts, the derived post count, and
// whether the viewer currently follows the author.
func (p *PostController) Profile(ctx *gin.Context) {
	author, err := p.users.ByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(ctx)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load author")
		return
	}

	total, err := p.posts.CountByAuthor(ctx.Request.Context(), author.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to count author posts")
		return
	}
	page := utils.Paginate(ctx.Query("page"), total)
	posts, _, err := p.posts.ByAuthor(ctx.Request.Context(), author.ID, page.Offset(), page.Size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to list author posts")
		return
	}

	following := false
	if viewerID, ok := middleware.CurrentUserID(ctx); ok {
		following, _ = p.follows.Exists(ctx.Request.Context(), viewerID, author.ID)
	}

	utils.Success(ctx, gin.H{
		"author":      publicUser(author),
		"posts_count": total,
		"following":   following,
		"items":       posts,
		"pagination":  page,
	})
}

// PostDetail returns one post with its comments and the author's post count.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := p.fetchPost(ctx)
	if !ok {
		return
	}
	postsCount, err := p.posts.CountByAuthor(ctx.Request.Context(), post.AuthorID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to count author posts")
		return
	}
	comments, err := p.comments.ByPost(ctx.Request.Context(), post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to load comments")
		return
	}
	utils.Success(ctx, gin.H{"post": post, "posts_count": postsCount, "comments": comments})
}

// CreatePost stores a new post and concludes with a redirect to the author's
// profile. Malformed content redisplays the submitted values without storing
// anything.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "authentication required")
		return
	}

	var req postForm
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	text, groupID, ok := p.validatePostForm(ctx, req)
	if !ok {
		return
	}

	post := models.Post{AuthorID: userID, GroupID: groupID, Text: text, Image: req.Image}
	if err := p.posts.Create(ctx.Request.Context(), &post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create post")
		return
	}

	utils.Redirect(ctx, "/profile/"+ctx.GetString(middleware.ContextUsernameKey))
}

// UpdatePost lets the author edit their post; anyone else is sent back to the
// post detail view. A group change reassigns the post for every future feed
// computation.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.fetchPost(ctx)
	if !ok {
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)
	if post.AuthorID != userID {
		utils.Redirect(ctx, postPath(post.ID))
		return
	}

	var req postForm
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	text, groupID, ok := p.validatePostForm(ctx, req)
	if !ok {
		return
	}

	post.Text = text
	post.GroupID = groupID
	post.Image = req.Image
	if err := p.posts.Update(ctx.Request.Context(), post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update post")
		return
	}

	utils.Redirect(ctx, postPath(post.ID))
}

// DeletePost removes the author's post. Deletion is immediate: the post is
// gone from every feed query at once (the page cache keeps its stale copy
// until expiry).
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.fetchPost(ctx)
	if !ok {
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)
	if post.AuthorID != userID {
		utils.Redirect(ctx, postPath(post.ID))
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to delete post")
		return
	}

	utils.Redirect(ctx, "/profile/"+ctx.GetString(middleware.ContextUsernameKey))
}

// CreateComment attaches a comment and redirects back to the post. An empty
// comment stores nothing; the redirect happens either way.
func (p *PostController) CreateComment(ctx *gin.Context) {
	post, ok := p.fetchPost(ctx)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(ctx)

	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	text := strings.TrimSpace(utils.Sanitize(req.Text))
	if text != "" {
		comment := models.Comment{PostID: post.ID, AuthorID: userID, Text: text}
		if err := p.comments.Create(ctx.Request.Context(), &comment); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to create comment")
			return
		}
	}

	utils.Redirect(ctx, postPath(post.ID))
}

// DeleteComment removes the caller's own comment; anyone else is sent back to
// the post detail view.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	commentID, err := strconv.Atoi(ctx.Param("commentId"))
	if err != nil {
		utils.NotFound(ctx)
		return
	}
	comment, err := p.comments.ByID(ctx.Request.Context(), uint(commentID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(ctx)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load comment")
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)
	if comment.AuthorID != userID {
		utils.Redirect(ctx, postPath(comment.PostID))
		return
	}

	if err := p.comments.Delete(ctx.Request.Context(), comment); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to delete comment")
		return
	}
	utils.Redirect(ctx, postPath(comment.PostID))
}

// validatePostForm sanitizes the submitted text and resolves the group slug.
// On a validation failure it writes the form-redisplay response (success
// status, non-zero code, submitted values echoed back) and returns ok=false.
func (p *PostController) validatePostForm(ctx *gin.Context, req postForm) (string, *uint, bool) {
	redisplay := func(code int, msg string) {
		utils.Respond(ctx, http.StatusOK, code, msg, gin.H{
			"text":  req.Text,
			"group": req.Group,
			"image": req.Image,
		})
	}

	text := strings.TrimSpace(utils.Sanitize(req.Text))
	if text == "" {
		redisplay(40030, "text cannot be empty")
		return "", nil, false
	}

	var groupID *uint
	if slug := strings.TrimSpace(req.Group); slug != "" {
		group, err := p.groups.BySlug(ctx.Request.Context(), slug)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				redisplay(40031, "unknown group")
				return "", nil, false
			}
			utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load group")
			return "", nil, false
		}
		groupID = &group.ID
	}
	return text, groupID, true
}

func (p *PostController) fetchPost(ctx *gin.Context) (*models.Post, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		utils.NotFound(ctx)
		return nil, false
	}
	post, err := p.posts.ByID(ctx.Request.Context(), uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(ctx)
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to load post")
		return nil, false
	}
	return post, true
}

func (p *PostController) countAll(ctx *gin.Context) (int64, error) {
	_, total, err := p.posts.All(ctx.Request.Context(), 0, 1)
	return total, err
}

func postPath(id uint) string {
	return "/posts/" + strconv.Itoa(int(id))
}
