package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studystack/studystack-api/internal/dto"
	"github.com/studystack/studystack-api/internal/models"
	"github.com/studystack/studystack-api/internal/service"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
	"github.com/studystack/studystack-api/pkg/response"
)

type catalogMock struct {
	approved     []models.Resource
	pending      []models.Resource
	submitResp   *models.Resource
	submitErr    error
	lastSubmit   dto.SubmitResourceRequest
	lastUpload   service.ResourceUpload
	submitCalled bool
	downloadURL  string
	urlErr       error
}

func (m *catalogMock) ListApproved(ctx context.Context, resourceType models.ResourceType) []models.Resource {
	return m.approved
}

func (m *catalogMock) ListPending(ctx context.Context) []models.Resource {
	return m.pending
}

func (m *catalogMock) Submit(ctx context.Context, req dto.SubmitResourceRequest, upload service.ResourceUpload) (*models.Resource, error) {
	m.submitCalled = true
	m.lastSubmit = req
	m.lastUpload = upload
	return m.submitResp, m.submitErr
}

func (m *catalogMock) SubscribeApproved(resourceType models.ResourceType, fn service.SnapshotFunc) func() {
	fn(m.approved)
	return func() {}
}

func (m *catalogMock) GetDownloadURL(ctx context.Context, id string) (string, error) {
	return m.downloadURL, m.urlErr
}

func (m *catalogMock) Download(ctx context.Context, id, token string) (*service.ResourceDownload, error) {
	return nil, appErrors.ErrForbidden
}

func TestCatalogHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &catalogMock{approved: []models.Resource{
		{ID: "a", Degree: "B.Tech", Branch: "CSE", Subject: "Algorithms", ResourceType: models.ResourceTypeNotes, Approved: true},
		{ID: "b", Degree: "MBA", Branch: "Finance", Subject: "Accounting", ResourceType: models.ResourceTypeNotes, Approved: true},
	}}
	handler := NewCatalogHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resources/notes?degree=B.Tech", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "type", Value: "notes"}}

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	rows, ok := env.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 1)
	assert.EqualValues(t, 1, env.Meta["total"])
}

func TestCatalogHandlerListUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogHandler(&catalogMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resources/videos", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "type", Value: "videos"}}

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandlerSubjects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &catalogMock{approved: []models.Resource{
		{Subject: "Signals"},
		{Subject: "Algorithms"},
		{Subject: "Signals"},
	}}
	handler := NewCatalogHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resources/notes/subjects", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "type", Value: "notes"}}

	handler.Subjects(c)
	require.Equal(t, http.StatusOK, w.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, []interface{}{"Algorithms", "Signals"}, env.Data)
}

func multipartSubmission(t *testing.T, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("degree", "B.Tech"))
	require.NoError(t, mw.WriteField("branch", "CSE"))
	require.NoError(t, mw.WriteField("semester", "4"))
	require.NoError(t, mw.WriteField("subject", "Operating Systems"))
	require.NoError(t, mw.WriteField("resourceType", "notes"))
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 stub"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestCatalogHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &catalogMock{submitResp: &models.Resource{ID: "r1", Title: "OS Notes"}}
	handler := NewCatalogHandler(mock)

	body, contentType := multipartSubmission(t, "OS Notes.pdf")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/resources", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.True(t, mock.submitCalled)
	assert.Equal(t, "B.Tech", mock.lastSubmit.Degree)
	assert.Equal(t, 4, mock.lastSubmit.Semester)
	assert.Equal(t, models.ResourceTypeNotes, mock.lastSubmit.ResourceType)
	assert.Equal(t, "OS Notes.pdf", mock.lastUpload.FileName)
}

func TestCatalogHandlerSubmitMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &catalogMock{}
	handler := NewCatalogHandler(mock)

	body, contentType := multipartSubmission(t, "")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/resources", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.submitCalled)
}

func TestCatalogHandlerSubmitServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &catalogMock{submitErr: appErrors.ErrBackendUnavailable}
	handler := NewCatalogHandler(mock)

	body, contentType := multipartSubmission(t, "notes.pdf")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/resources", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Submit(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalogHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogHandler(&catalogMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resources/r1/download", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
