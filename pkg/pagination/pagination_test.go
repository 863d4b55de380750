package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	type entry struct {
		page, limit int
		want        Params
	}
	entries := []entry{
		{page: 0, limit: 0, want: Params{Page: 1, Limit: 20, Offset: 0}},
		{page: 3, limit: 10, want: Params{Page: 3, Limit: 10, Offset: 20}},
		{page: -2, limit: 500, want: Params{Page: 1, Limit: 100, Offset: 0}},
	}
	for _, e := range entries {
		assert.Equal(t, e.want, Normalize(e.page, e.limit), "Normalize(%d, %d)", e.page, e.limit)
	}
}

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/roles?page=2&limit=5", nil)

	assert.Equal(t, Params{Page: 2, Limit: 5, Offset: 5}, Parse(c))
}
