package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePageParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query      string
		page, size int
		offset     int
	}{
		{"", 1, 10, 0},
		{"?page=3&page_size=20", 3, 20, 40},
		{"?page=-1&page_size=abc", 1, 10, 0},
		{"?page=2&page_size=500", 2, MaxPageSize, MaxPageSize},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tc.query, nil)

		p := ParsePageParams(c)
		assert.Equal(t, tc.page, p.Page, tc.query)
		assert.Equal(t, tc.size, p.PageSize, tc.query)
		assert.Equal(t, tc.offset, p.GetOffset(), tc.query)
	}
}

func TestNilPageParams(t *testing.T) {
	var p *PageParams
	assert.Equal(t, 0, p.GetOffset())
	assert.Equal(t, DefaultPageSize, p.GetLimit())
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	info = NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, info.TotalPages)
	assert.False(t, info.HasNext)
}
