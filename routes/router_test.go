package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yatube/yatube/models"
	"github.com/yatube/yatube/routes"
	"github.com/yatube/yatube/utils"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "yatube-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("GIN_PATH", filepath.Join(dir, "gin.log"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type app struct {
	router *gin.Engine
	db     *gorm.DB
	cache  *utils.Cache
}

func setupApp(t *testing.T) *app {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{}))

	mr := miniredis.RunT(t)
	cache := utils.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	return &app{router: routes.SetupRouter(db, cache), db: db, cache: cache}
}

func (a *app) seedUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{Username: username, PasswordHash: hash}
	require.NoError(t, a.db.Create(user).Error)
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return user, token
}

func (a *app) seedGroup(t *testing.T, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: slug, Slug: slug}
	require.NoError(t, a.db.Create(group).Error)
	return group
}

func (a *app) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return data
}

func (a *app) followEdges(t *testing.T) int64 {
	t.Helper()
	var cnt int64
	require.NoError(t, a.db.Model(&models.Follow{}).Count(&cnt).Error)
	return cnt
}

func TestSignupLoginMe(t *testing.T) {
	a := setupApp(t)

	w := a.request(http.MethodPost, "/auth/signup", "", gin.H{"username": "leo", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.request(http.MethodPost, "/auth/login", "", gin.H{"username": "leo", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decodeData(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = a.request(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user, _ := decodeData(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "leo", user["username"])
}

func TestFollowIsIdempotent(t *testing.T) {
	a := setupApp(t)
	_, token := a.seedUser(t, "leo")
	a.seedUser(t, "anton")

	for i := 0; i < 3; i++ {
		w := a.request(http.MethodPost, "/profile/anton/follow", token, nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/anton", w.Header().Get("Location"))
	}

	assert.Equal(t, int64(1), a.followEdges(t), "N follow requests leave exactly one edge")
}

func TestSelfFollowIsSilentlyPrevented(t *testing.T) {
	a := setupApp(t)
	_, token := a.seedUser(t, "leo")

	w := a.request(http.MethodPost, "/profile/leo/follow", token, nil)
	require.Equal(t, http.StatusFound, w.Code, "self-follow is a silent no-op, not an error")
	assert.Equal(t, "/profile/leo", w.Header().Get("Location"))
	assert.Equal(t, int64(0), a.followEdges(t))
}

func TestFollowUnknownAuthor(t *testing.T) {
	a := setupApp(t)
	_, token := a.seedUser(t, "leo")

	w := a.request(http.MethodPost, "/profile/ghost/follow", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticatedActionRedirectsToLogin(t *testing.T) {
	a := setupApp(t)
	a.seedUser(t, "anton")

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/profile/anton/follow"},
		{http.MethodPost, "/profile/anton/unfollow"},
		{http.MethodPost, "/posts"},
		{http.MethodGet, "/follow"},
	} {
		w := a.request(route.method, route.path, "", nil)
		require.Equal(t, http.StatusFound, w.Code, "%s %s", route.method, route.path)
		loc := w.Header().Get("Location")
		assert.Contains(t, loc, "/auth/login/?next=", "%s %s", route.method, route.path)
	}
}

func TestFollowFeedEndToEnd(t *testing.T) {
	a := setupApp(t)
	_, followerToken := a.seedUser(t, "leo")
	_, authorToken := a.seedUser(t, "anton")

	// leo follows anton, then anton writes a post.
	w := a.request(http.MethodPost, "/profile/anton/follow", followerToken, nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = a.request(http.MethodPost, "/posts", authorToken, gin.H{"text": "hello"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/anton", w.Header().Get("Location"))

	w = a.request(http.MethodGet, "/follow", followerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, _ := decodeData(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	post, _ := items[0].(map[string]interface{})
	assert.Equal(t, "hello", post["text"])

	// The author's own follow feed is empty: authoring is not following.
	w = a.request(http.MethodGet, "/follow", authorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, _ = decodeData(t, w)["items"].([]interface{})
	assert.Empty(t, items)

	// After unfollowing the feed is empty even though the post still exists.
	w = a.request(http.MethodPost, "/profile/anton/unfollow", followerToken, nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = a.request(http.MethodGet, "/follow", followerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, _ = decodeData(t, w)["items"].([]interface{})
	assert.Empty(t, items)

	w = a.request(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello", "the post is still in the global feed")
}

func TestGroupFeed(t *testing.T) {
	a := setupApp(t)
	_, token := a.seedUser(t, "anton")
	a.seedGroup(t, "cats")
	a.seedGroup(t, "dogs")

	w := a.request(http.MethodPost, "/posts", token, gin.H{"text": "about cats", "group": "cats"})
	require.Equal(t, http.StatusFound, w.Code)

	w = a.request(http.MethodGet, "/group/cats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, _ := decodeData(t, w)["items"].([]interface{})
	require.Len(t, items, 1)

	w = a.request(http.MethodGet, "/group/dogs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, _ = decodeData(t, w)["items"].([]interface{})
	assert.Empty(t, items, "a post tagged cats never appears in the dogs feed")

	w = a.request(http.MethodGet, "/group/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostValidationRedisplaysForm(t *testing.T) {
	a := setupApp(t)
	_, token := a.seedUser(t, "anton")

	w := a.request(http.MethodPost, "/posts", token, gin.H{"text": "   ", "group": "", "image": "ref"})
	require.Equal(t, http.StatusOK, w.Code, "validation failure answers with a success-class status")

	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.Code)
	data, _ := resp.Data.(map[string]interface{})
	assert.Equal(t, "ref", data["image"], "submitted values are echoed back")

	var cnt int64
	require.NoError(t, a.db.Model(&models.Post{}).Count(&cnt).Error)
	assert.Zero(t, cnt, "nothing is stored on validation failure")
}

func TestEditByNonOwnerRedirectsToDetail(t *testing.T) {
	a := setupApp(t)
	author, _ := a.seedUser(t, "anton")
	_, strangerToken := a.seedUser(t, "leo")

	post := &models.Post{AuthorID: author.ID, Text: "original"}
	require.NoError(t, a.db.Create(post).Error)

	w := a.request(http.MethodPost, "/posts/1/edit", strangerToken, gin.H{"text": "hijacked"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/1", w.Header().Get("Location"))

	var reloaded models.Post
	require.NoError(t, a.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "original", reloaded.Text)
}

func TestProfilePaginationClamps(t *testing.T) {
	a := setupApp(t)
	author, _ := a.seedUser(t, "anton")
	for i := 0; i < 13; i++ {
		require.NoError(t, a.db.Create(&models.Post{AuthorID: author.ID, Text: "post"}).Error)
	}

	w := a.request(http.MethodGet, "/profile/anton", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	items, _ := data["items"].([]interface{})
	assert.Len(t, items, 10)
	assert.Equal(t, float64(13), data["posts_count"])

	w = a.request(http.MethodGet, "/profile/anton?page=2", "", nil)
	data = decodeData(t, w)
	items, _ = data["items"].([]interface{})
	assert.Len(t, items, 3)

	// Past the end clamps to the last valid page.
	w = a.request(http.MethodGet, "/profile/anton?page=5", "", nil)
	data = decodeData(t, w)
	items, _ = data["items"].([]interface{})
	assert.Len(t, items, 3)
	pagination, _ := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["page"])

	// A non-numeric token falls back to page 1.
	w = a.request(http.MethodGet, "/profile/anton?page=abc", "", nil)
	data = decodeData(t, w)
	items, _ = data["items"].([]interface{})
	assert.Len(t, items, 10)
}

func TestProfileFollowingFlag(t *testing.T) {
	a := setupApp(t)
	_, followerToken := a.seedUser(t, "leo")
	a.seedUser(t, "anton")

	w := a.request(http.MethodGet, "/profile/anton", followerToken, nil)
	assert.Equal(t, false, decodeData(t, w)["following"])

	a.request(http.MethodPost, "/profile/anton/follow", followerToken, nil)

	w = a.request(http.MethodGet, "/profile/anton", followerToken, nil)
	assert.Equal(t, true, decodeData(t, w)["following"])

	// Anonymous viewers never see a following flag set.
	w = a.request(http.MethodGet, "/profile/anton", "", nil)
	assert.Equal(t, false, decodeData(t, w)["following"])
}

func TestGlobalFeedCacheStaleness(t *testing.T) {
	a := setupApp(t)
	author, _ := a.seedUser(t, "anton")
	post := &models.Post{AuthorID: author.ID, Text: "doomed"}
	require.NoError(t, a.db.Create(post).Error)

	before := a.request(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, before.Code)
	require.Contains(t, before.Body.String(), "doomed")

	require.NoError(t, a.db.Delete(&models.Post{}, post.ID).Error)

	// Within the window the cached bytes are replayed unchanged.
	during := a.request(http.MethodGet, "/", "", nil)
	assert.Equal(t, before.Body.Bytes(), during.Body.Bytes(), "deletion does not invalidate the cache before expiry")

	a.cache.Clear()
	after := a.request(http.MethodGet, "/", "", nil)
	assert.NotEqual(t, before.Body.String(), after.Body.String())
	assert.NotContains(t, after.Body.String(), "doomed")
}

func TestCommentFlow(t *testing.T) {
	a := setupApp(t)
	author, authorToken := a.seedUser(t, "anton")
	post := &models.Post{AuthorID: author.ID, Text: "discussable"}
	require.NoError(t, a.db.Create(post).Error)

	w := a.request(http.MethodPost, "/posts/1/comments", authorToken, gin.H{"text": "nice"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/1", w.Header().Get("Location"))

	// An empty comment stores nothing but still redirects.
	w = a.request(http.MethodPost, "/posts/1/comments", authorToken, gin.H{"text": "  "})
	require.Equal(t, http.StatusFound, w.Code)

	w = a.request(http.MethodGet, "/posts/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments, _ := decodeData(t, w)["comments"].([]interface{})
	require.Len(t, comments, 1)
	comment, _ := comments[0].(map[string]interface{})
	assert.Equal(t, "nice", comment["text"])
}

func TestUnknownRoutesAnswerUniformly(t *testing.T) {
	a := setupApp(t)

	for _, path := range []string{"/nope", "/posts/999", "/profile/ghost", "/group/ghost"} {
		w := a.request(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusNotFound, w.Code, path)
		var resp utils.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 40400, resp.Code, "uniform not-found response for %s", path)
	}
}
