package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/eventhub/internal/service"
	"github.com/d60-Lab/eventhub/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrEventNotFound, http.StatusNotFound},
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrAlreadyFavorited, http.StatusBadRequest},
		{service.ErrNotFavorited, http.StatusBadRequest},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrInvalidCode, http.StatusBadRequest},
		{service.ErrTokenExpired, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", service.ErrInvalidCode), http.StatusBadRequest},
		{service.ErrEmailTaken, http.StatusConflict},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrEmailNotVerified, http.StatusForbidden},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			c, w := testContext("/x")
			writeError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)

			var r response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
			assert.Equal(t, tc.err.Error(), r.Message)
		})
	}
}

func TestWriteError_ValidationFieldMap(t *testing.T) {
	c, w := testContext("/x")
	writeError(c, &service.ValidationError{Field: "password", Messages: []string{"too short", "too common"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var r struct {
		Data map[string][]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, []string{"too short", "too common"}, r.Data["password"])
}

func TestPageQuery(t *testing.T) {
	c, _ := testContext("/api/v1/events?limit=500&offset=-3")
	p := pageQuery(c)
	assert.Equal(t, service.MaxPageLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)

	c, _ = testContext("/api/v1/events?limit=abc")
	assert.Equal(t, service.DefaultPageLimit, pageQuery(c).Limit)
}

func TestNewPage_Links(t *testing.T) {
	c, _ := testContext("/api/v1/events?types_event=grant&limit=5&offset=5")
	c.Request.Host = "api.example.com"

	page := newPage(c, service.Pagination{Limit: 5, Offset: 5}, 12, []string{})
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://api.example.com/api/v1/events?limit=5&offset=10&types_event=grant", *page.Next)
	assert.Equal(t, "http://api.example.com/api/v1/events?limit=5&types_event=grant", *page.Previous)

	last := newPage(c, service.Pagination{Limit: 5, Offset: 10}, 12, []string{})
	assert.Nil(t, last.Next)

	c.Request.Header.Set("X-Forwarded-Proto", "https")
	first := newPage(c, service.Pagination{Limit: 5}, 12, []string{})
	assert.Nil(t, first.Previous)
	require.NotNil(t, first.Next)
	assert.Equal(t, "https://api.example.com/api/v1/events?limit=5&offset=5&types_event=grant", *first.Next)
}

func TestNewPage_HugeOffset(t *testing.T) {
	c, _ := testContext("/api/v1/events")
	c.Request.Host = "api.example.com"

	page := newPage(c, service.Pagination{Limit: service.MaxPageLimit, Offset: math.MaxInt}, 12, []string{})
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.NotContains(t, *page.Previous, "offset=-")
}

func TestBindError_TranslatesFieldErrors(t *testing.T) {
	RegisterValidators()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x",
		strings.NewReader(`{"title":"","types_event":"party","type_url":"not a url"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var in service.CreateEventInput
	err := c.ShouldBindJSON(&in)
	require.Error(t, err)
	bindError(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var r struct {
		Message string              `json:"message"`
		Data    map[string][]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, "invalid request", r.Message)
	assert.Contains(t, r.Data, "title")
	assert.Contains(t, r.Data, "type_url")
	require.Contains(t, r.Data, "types_event")
	assert.Contains(t, r.Data["types_event"][0], "must be one of grant")
}

func TestBindError_MalformedJSON(t *testing.T) {
	c, w := testContext("/x")
	bindError(c, errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
