package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/models"
)

func postTexts(posts []models.Post) []string {
	texts := make([]string, len(posts))
	for i, p := range posts {
		texts[i] = p.Text
	}
	return texts
}

func TestAllOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "anton")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		post := &models.Post{AuthorID: author.ID, Text: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(post).Error)
	}

	posts, total, err := repo.All(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"third", "second", "first"}, postTexts(posts))
}

func TestAllBreaksCreationTimeTiesByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "anton")

	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, text := range []string{"older id", "newer id"} {
		require.NoError(t, db.Create(&models.Post{AuthorID: author.ID, Text: text, CreatedAt: same}).Error)
	}

	posts, _, err := repo.All(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer id", "older id"}, postTexts(posts), "higher id wins when creation times are equal")
}

func TestByGroupMembershipAndExclusion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "anton")
	cats := seedGroup(t, db, "cats")
	dogs := seedGroup(t, db, "dogs")

	seedPost(t, db, author, cats, "about cats")
	seedPost(t, db, author, dogs, "about dogs")
	seedPost(t, db, author, nil, "no group")

	posts, total, err := repo.ByGroup(ctx, cats.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"about cats"}, postTexts(posts), "a post tagged to one group never shows in another group's feed")
}

func TestGroupReassignmentMovesThePost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "anton")
	cats := seedGroup(t, db, "cats")
	dogs := seedGroup(t, db, "dogs")

	post := seedPost(t, db, author, cats, "roaming")
	post.GroupID = &dogs.ID
	require.NoError(t, repo.Update(ctx, post))

	_, total, err := repo.ByGroup(ctx, cats.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "no historical membership leaks after reassignment")

	posts, _, err := repo.ByGroup(ctx, dogs.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"roaming"}, postTexts(posts))
}

func TestByAuthorsServesTheFollowFeed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	followed := seedUser(t, db, "anton")
	other := seedUser(t, db, "maya")

	seedPost(t, db, followed, nil, "from followed")
	seedPost(t, db, other, nil, "from other")

	posts, total, err := repo.ByAuthors(ctx, []uint{followed.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"from followed"}, postTexts(posts))

	// Following nobody yields an empty page, not an error.
	posts, total, err = repo.ByAuthors(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, posts)
}

func TestDeleteRemovesFromEveryFeed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "anton")
	cats := seedGroup(t, db, "cats")
	post := seedPost(t, db, author, cats, "short lived")

	require.NoError(t, repo.Delete(ctx, post))

	for name, query := range map[string]func() (int64, error){
		"global":  func() (int64, error) { _, n, err := repo.All(ctx, 0, 10); return n, err },
		"group":   func() (int64, error) { _, n, err := repo.ByGroup(ctx, cats.ID, 0, 10); return n, err },
		"profile": func() (int64, error) { _, n, err := repo.ByAuthor(ctx, author.ID, 0, 10); return n, err },
		"follow":  func() (int64, error) { _, n, err := repo.ByAuthors(ctx, []uint{author.ID}, 0, 10); return n, err },
	} {
		n, err := query()
		require.NoError(t, err, name)
		assert.Equal(t, int64(0), n, "%s feed must not contain the deleted post", name)
	}
}

func TestCountByAuthor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "anton")
	other := seedUser(t, db, "maya")
	seedPost(t, db, author, nil, "one")
	seedPost(t, db, author, nil, "two")
	seedPost(t, db, other, nil, "three")

	n, err := repo.CountByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
