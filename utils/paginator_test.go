package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginateDefaultsToFirstPage(t *testing.T) {
	for _, token := range []string{"", "abc", "-3", "0", "1.5"} {
		page := Paginate(token, 25)
		assert.Equal(t, 1, page.Number, "token %q", token)
		assert.False(t, page.HasPrevious)
		assert.True(t, page.HasNext)
	}
}

func TestPaginateWindows(t *testing.T) {
	// 13 items at size 10: two pages of 10 and 3.
	page := Paginate("1", 13)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 0, page.Offset())
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)

	page = Paginate("2", 13)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 10, page.Offset())
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestPaginateClampsPastTheEnd(t *testing.T) {
	page := Paginate("3", 13)
	assert.Equal(t, 2, page.Number, "out-of-range page clamps to the last valid page")
	assert.Equal(t, 10, page.Offset())

	page = Paginate("99", 13)
	assert.Equal(t, 2, page.Number)
}

func TestPaginateEmptySequence(t *testing.T) {
	page := Paginate("7", 0)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, int64(0), page.TotalItems)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}
