package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yatube/yatube/middleware"
	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/repositories"
	"github.com/yatube/yatube/utils"
)

// FollowController maintains follow edges and serves the follow feed.
type FollowController struct {
	follows repositories.FollowRepository
	users   repositories.UserRepository
	posts   repositories.PostRepository
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(
	follows repositories.FollowRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
) *FollowController {
	return &FollowController{follows: follows, users: users, posts: posts}
}

// Follow subscribes the caller to the author named in the path and redirects
// to the author's profile. Following yourself, or an author you already
// follow, changes nothing and reports nothing: the redirect is the same.
func (f *FollowController) Follow(ctx *gin.Context) {
	author, ok := f.resolveAuthor(ctx)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(ctx)

	if userID != author.ID {
		if err := f.follows.Create(ctx.Request.Context(), userID, author.ID); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to follow author")
			return
		}
	}

	utils.Redirect(ctx, "/profile/"+author.Username)
}

// Unfollow removes the caller's edge to the author and redirects to the
// author's profile. Unfollowing an author you never followed is a no-op.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	author, ok := f.resolveAuthor(ctx)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(ctx)

	if err := f.follows.Delete(ctx.Request.Context(), userID, author.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to unfollow author")
		return
	}

	utils.Redirect(ctx, "/profile/"+author.Username)
}

// FollowFeed returns the page of posts from every author the caller follows.
// It reads the edge set on every request, so edge changes and post deletions
// show up immediately.
func (f *FollowController) FollowFeed(ctx *gin.Context) {
	userID, _ := middleware.CurrentUserID(ctx)

	authorIDs, err := f.follows.AuthorIDs(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load follow edges")
		return
	}

	_, total, err := f.posts.ByAuthors(ctx.Request.Context(), authorIDs, 0, 1)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to count follow feed")
		return
	}
	page := utils.Paginate(ctx.Query("page"), total)
	posts, _, err := f.posts.ByAuthors(ctx.Request.Context(), authorIDs, page.Offset(), page.Size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to list follow feed")
		return
	}

	utils.Success(ctx, gin.H{"items": posts, "pagination": page})
}

func (f *FollowController) resolveAuthor(ctx *gin.Context) (*models.User, bool) {
	author, err := f.users.ByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(ctx)
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load author")
		return nil, false
	}
	return author, true
}
