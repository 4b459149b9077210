package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
)

// feedOrder is newest-first by creation time; ids are monotonically assigned,
// so they break ties between posts created in the same instant.
const feedOrder = "created_at DESC, id DESC"

// PostRepository stores posts and serves the four feed queries. The feed
// queries are read-only windows over the ordered post sequence; none of them
// mutates the post or follow stores.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, post *models.Post) error
	ByID(ctx context.Context, id uint) (*models.Post, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)

	All(ctx context.Context, offset, limit int) ([]models.Post, int64, error)
	ByGroup(ctx context.Context, groupID uint, offset, limit int) ([]models.Post, int64, error)
	ByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error)
	ByAuthors(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	// Save with a map so a cleared group (nil GroupID) is persisted too.
	return r.db.WithContext(ctx).Model(post).Updates(map[string]interface{}{
		"text":     post.Text,
		"group_id": post.GroupID,
		"image":    post.Image,
	}).Error
}

func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Delete(post).Error
}

func (r *postRepository) ByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) All(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	return r.feed(r.db.WithContext(ctx).Model(&models.Post{}), offset, limit)
}

func (r *postRepository) ByGroup(ctx context.Context, groupID uint, offset, limit int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("group_id = ?", groupID)
	return r.feed(q, offset, limit)
}

func (r *postRepository) ByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID)
	return r.feed(q, offset, limit)
}

// ByAuthors serves the follow feed. An empty author set short-circuits to an
// empty page instead of generating an IN () clause.
func (r *postRepository) ByAuthors(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, int64, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, 0, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id IN ?", authorIDs)
	return r.feed(q, offset, limit)
}

// feed runs the shared count-then-window query. Count restores the statement
// afterwards, so reusing q for the page fetch keeps both in sync.
func (r *postRepository) feed(q *gorm.DB, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	err := q.Preload("Author").Preload("Group").
		Order(feedOrder).
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
