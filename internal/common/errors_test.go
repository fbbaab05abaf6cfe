package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationFailedError_CarriesOriginalMessage(t *testing.T) {
	cause := errors.New("status 500: boom")
	err := OperationFailed("生成用户故事失败", cause)

	assert.Equal(t, "生成用户故事失败: status 500: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestFailErr_MapsDomainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", NotFound("项目", 7), http.StatusNotFound, CodeNotFound},
		{"validation", Invalid("项目中没有需求可供分析"), http.StatusBadRequest, CodeValidation},
		{"operation", OperationFailed("op", errors.New("x")), http.StatusInternalServerError, CodeOperationFailed},
		{"unavailable", fmt.Errorf("async parse: %w", ErrUnavailable), http.StatusServiceUnavailable, CodeUnavailable},
		{"other", errors.New("db down"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			FailErr(c, tt.err)

			require.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.ErrorCode)
			assert.Equal(t, tt.wantCode, *resp.ErrorCode)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestNewULID(t *testing.T) {
	a, err := NewULID()
	require.NoError(t, err)
	b, err := NewULID()
	require.NoError(t, err)
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
