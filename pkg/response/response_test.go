package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		total int64
		pages int
	}{
		{"empty", 10, 0, 0},
		{"exact", 10, 20, 2},
		{"partial last page", 10, 21, 3},
		{"single", 50, 1, 1},
		{"no limit", 0, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewMeta(1, tt.limit, tt.total)
			assert.Equal(t, tt.pages, meta.TotalPages)
			assert.Equal(t, tt.total, meta.Total)
		})
	}
}

func TestPage(t *testing.T) {
	rec := httptest.NewRecorder()
	Page(rec, "Listed", []string{"a", "b"}, 2, 2, 5)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.True(t, body.Success)
	require.NotNil(t, body.Meta)
	assert.Equal(t, Meta{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, *body.Meta)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name    string
		write   func(http.ResponseWriter, string)
		message string
		status  int
		want    string
	}{
		{"conflict", Conflict, "Email already exists", http.StatusConflict, "Email already exists"},
		{"rate limited", TooManyRequests, "", http.StatusTooManyRequests, "Too Many Requests"},
		{"not found default", NotFound, "", http.StatusNotFound, "Not Found"},
		{"unauthorized", Unauthorized, "Invalid token", http.StatusUnauthorized, "Invalid token"},
		{"internal default", InternalServerError, "", http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, tt.message)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.want, body.Message)
			assert.Nil(t, body.Meta)
		})
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"email": "required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, map[string]interface{}{"email": "required"}, body.Error)
}
