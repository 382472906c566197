package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http/httptest"
	"testing"

	"cropcare/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, err)

	assert.Equal(t, 200, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestFromError(t *testing.T) {
	resp := render(t, errors.NotFound("邀请码无效"))
	assert.Equal(t, errors.CodeNotFound, resp.Code)
	assert.Equal(t, "邀请码无效", resp.Message)

	resp = render(t, errors.ExpiredOrExhausted(errors.ReasonRevoked))
	assert.Equal(t, errors.CodeGone, resp.Code)
	assert.Equal(t, map[string]interface{}{"reason": "revoked"}, resp.Data)

	resp = render(t, errors.Configuration("role WORKER missing", nil))
	assert.Equal(t, errors.CodeServerError, resp.Code)
	assert.NotContains(t, resp.Message, "WORKER")

	resp = render(t, errors.Transient("lock timeout", stderrors.New("55P03")))
	assert.Equal(t, errors.CodeUnavailable, resp.Code)
	assert.NotContains(t, resp.Message, "55P03")

	resp = render(t, stderrors.New("boom"))
	assert.Equal(t, errors.CodeServerError, resp.Code)
	assert.Equal(t, "服务器内部错误", resp.Message)
}
