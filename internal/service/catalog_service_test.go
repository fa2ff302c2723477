package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studystack/studystack-api/internal/dto"
	"github.com/studystack/studystack-api/internal/models"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
)

type stubResourceStore struct {
	mu          sync.Mutex
	notReady    bool
	approved    map[models.ResourceType][]models.Resource
	approvedErr error
	pending     []models.Resource
	pendingErr  error
	created     []*models.Resource
	createErr   error
	byID        map[string]*models.Resource
}

func newStubStore() *stubResourceStore {
	return &stubResourceStore{
		approved: make(map[models.ResourceType][]models.Resource),
		byID:     make(map[string]*models.Resource),
	}
}

func (s *stubResourceStore) Ready() bool { return !s.notReady }

func (s *stubResourceStore) Create(ctx context.Context, res *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if res.ID == "" {
		res.ID = "stub-id"
	}
	s.created = append(s.created, res)
	return nil
}

func (s *stubResourceStore) ListApproved(ctx context.Context, resourceType models.ResourceType) ([]models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.approvedErr != nil {
		return nil, s.approvedErr
	}
	out := make([]models.Resource, len(s.approved[resourceType]))
	copy(out, s.approved[resourceType])
	return out, nil
}

func (s *stubResourceStore) ListPending(ctx context.Context) ([]models.Resource, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	return s.pending, nil
}

func (s *stubResourceStore) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	if res, ok := s.byID[id]; ok {
		return res, nil
	}
	return nil, errors.New("not found")
}

func (s *stubResourceStore) setApproved(resourceType models.ResourceType, rows []models.Resource) {
	s.mu.Lock()
	s.approved[resourceType] = rows
	s.mu.Unlock()
}

type stubBlobStorage struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
	deleted []string
}

func newStubBlob() *stubBlobStorage {
	return &stubBlobStorage{saved: make(map[string][]byte)}
}

func (s *stubBlobStorage) SaveStream(key string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = data
	return "http://files.test/" + key, nil
}

func (s *stubBlobStorage) URL(key string) string { return "http://files.test/" + key }

func (s *stubBlobStorage) Open(key string) (*os.File, error) { return nil, os.ErrNotExist }

func (s *stubBlobStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	delete(s.saved, key)
	return nil
}

func (s *stubBlobStorage) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func newTestCatalogService(store *stubResourceStore, blob *stubBlobStorage) *CatalogService {
	return NewCatalogService(store, blob, nil, nil, nil, nil, zap.NewNop(), CatalogServiceConfig{
		MaxSemester:     8,
		PollInterval:    time.Hour, // keep polls out of assertion windows
		FallbackEnabled: true,
	})
}

func validSubmitRequest() dto.SubmitResourceRequest {
	return dto.SubmitResourceRequest{
		Degree:          "B.Tech",
		Branch:          "CSE",
		Semester:        4,
		Subject:         "Operating Systems",
		ResourceType:    models.ResourceTypeNotes,
		SubmittedByName: "",
	}
}

func TestSubmitStoresBlobThenPendingRecord(t *testing.T) {
	store := newStubStore()
	blob := newStubBlob()
	svc := newTestCatalogService(store, blob)

	upload := ResourceUpload{
		FileName: "OS Unit 3.PDF",
		Size:     128,
		Content:  strings.NewReader("%PDF-1.4 stub"),
	}
	res, err := svc.Submit(context.Background(), validSubmitRequest(), upload)
	require.NoError(t, err)

	assert.Equal(t, "OS Unit 3", res.Title)
	assert.False(t, res.Approved)
	assert.Nil(t, res.AdminApprovedAt)
	assert.Nil(t, res.SubmittedBy)
	assert.True(t, strings.HasPrefix(res.FileKey, "uploads/"))
	assert.True(t, strings.HasSuffix(res.FileKey, "_OS Unit 3.PDF"))
	assert.Equal(t, blob.URL(res.FileKey), res.PDFURL)

	require.Len(t, store.created, 1)
	assert.Equal(t, 1, blob.savedCount())
}

func TestSubmitRejectsNonPDFBeforeAnyIO(t *testing.T) {
	store := newStubStore()
	blob := newStubBlob()
	svc := newTestCatalogService(store, blob)

	upload := ResourceUpload{
		FileName: "assignments.docx",
		Size:     64,
		Content:  strings.NewReader("not a pdf"),
	}
	_, err := svc.Submit(context.Background(), validSubmitRequest(), upload)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	assert.Empty(t, store.created)
	assert.Zero(t, blob.savedCount())
}

func TestSubmitRejectsOutOfRangeSemester(t *testing.T) {
	svc := newTestCatalogService(newStubStore(), newStubBlob())

	req := validSubmitRequest()
	req.Semester = 9
	_, err := svc.Submit(context.Background(), req, ResourceUpload{
		FileName: "notes.pdf",
		Content:  strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitDeletesBlobWhenInsertFails(t *testing.T) {
	store := newStubStore()
	store.createErr = errors.New("connection refused")
	blob := newStubBlob()
	svc := newTestCatalogService(store, blob)

	_, err := svc.Submit(context.Background(), validSubmitRequest(), ResourceUpload{
		FileName: "notes.pdf",
		Content:  strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBackendUnavailable.Code, appErrors.FromError(err).Code)

	assert.Len(t, blob.deleted, 1)
	assert.Zero(t, blob.savedCount())
}

func TestSubmitFailsLoudWhenStoreUnavailable(t *testing.T) {
	store := newStubStore()
	store.notReady = true
	blob := newStubBlob()
	svc := newTestCatalogService(store, blob)

	_, err := svc.Submit(context.Background(), validSubmitRequest(), ResourceUpload{
		FileName: "notes.pdf",
		Content:  strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBackendUnavailable.Code, appErrors.FromError(err).Code)
	assert.Zero(t, blob.savedCount())
}

func TestListPendingDegradesToEmpty(t *testing.T) {
	store := newStubStore()
	store.pendingErr = errors.New("store offline")
	svc := newTestCatalogService(store, newStubBlob())

	pending := svc.ListPending(context.Background())
	assert.NotNil(t, pending)
	assert.Empty(t, pending)
}

func TestListApprovedDegradesToFallback(t *testing.T) {
	store := newStubStore()
	store.approvedErr = errors.New("store offline")
	svc := newTestCatalogService(store, newStubBlob())

	rows := svc.ListApproved(context.Background(), models.ResourceTypePYQs)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, models.ResourceTypePYQs, r.ResourceType)
		assert.True(t, r.Approved)
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	store := newStubStore()
	store.setApproved(models.ResourceTypeNotes, []models.Resource{
		{ID: "r1", Title: "Graph Theory", ResourceType: models.ResourceTypeNotes, Approved: true},
	})
	svc := newTestCatalogService(store, newStubBlob())

	snapshots := make(chan []models.Resource, 4)
	unsubscribe := svc.SubscribeApproved(models.ResourceTypeNotes, func(rs []models.Resource) {
		snapshots <- rs
	})
	defer unsubscribe()

	select {
	case snap := <-snapshots:
		require.Len(t, snap, 1)
		assert.Equal(t, "r1", snap[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestSubscribeRedeliversAfterChange(t *testing.T) {
	store := newStubStore()
	store.setApproved(models.ResourceTypeNotes, []models.Resource{
		{ID: "r1", ResourceType: models.ResourceTypeNotes, Approved: true},
	})
	svc := newTestCatalogService(store, newStubBlob())

	snapshots := make(chan []models.Resource, 4)
	unsubscribe := svc.SubscribeApproved(models.ResourceTypeNotes, func(rs []models.Resource) {
		snapshots <- rs
	})
	defer unsubscribe()

	select {
	case <-snapshots:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}

	store.setApproved(models.ResourceTypeNotes, []models.Resource{
		{ID: "r1", ResourceType: models.ResourceTypeNotes, Approved: true},
		{ID: "r2", ResourceType: models.ResourceTypeNotes, Approved: true},
	})
	svc.ResourceChanged(models.ResourceTypeNotes)

	select {
	case snap := <-snapshots:
		assert.Len(t, snap, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after change notification")
	}
}

func TestSubscribeIgnoresOtherCategories(t *testing.T) {
	store := newStubStore()
	svc := newTestCatalogService(store, newStubBlob())

	snapshots := make(chan []models.Resource, 4)
	unsubscribe := svc.SubscribeApproved(models.ResourceTypeNotes, func(rs []models.Resource) {
		snapshots <- rs
	})
	defer unsubscribe()

	<-snapshots // initial

	svc.ResourceChanged(models.ResourceTypeSolutions)
	select {
	case <-snapshots:
		t.Fatal("received snapshot for an unrelated category")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeIsIdempotentAndStopsDelivery(t *testing.T) {
	store := newStubStore()
	svc := newTestCatalogService(store, newStubBlob())

	var mu sync.Mutex
	deliveries := 0
	unsubscribe := svc.SubscribeApproved(models.ResourceTypeNotes, func([]models.Resource) {
		mu.Lock()
		deliveries++
		mu.Unlock()
	})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return deliveries == 1
	}, 2*time.Second, 10*time.Millisecond, "initial snapshot not delivered")

	unsubscribe()
	unsubscribe() // second call is a no-op

	svc.ResourceChanged(models.ResourceTypeNotes)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, deliveries)
}

// Full lifecycle: a submission is invisible to subscribers until a moderator
// approves it, after which the next snapshot carries it.
func TestSubmitThenApproveBecomesVisible(t *testing.T) {
	store := newStubStore()
	blob := newStubBlob()
	svc := newTestCatalogService(store, blob)

	res, err := svc.Submit(context.Background(), validSubmitRequest(), ResourceUpload{
		FileName: "OS Unit 3.pdf",
		Content:  strings.NewReader("%PDF-1.4 stub"),
	})
	require.NoError(t, err)
	require.False(t, res.Approved)

	snapshots := make(chan []models.Resource, 4)
	unsubscribe := svc.SubscribeApproved(models.ResourceTypeNotes, func(rs []models.Resource) {
		snapshots <- rs
	})
	defer unsubscribe()

	select {
	case snap := <-snapshots:
		assert.Empty(t, snap, "pending submission must not be visible")
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}

	approved := *res
	approved.Approved = true
	store.setApproved(models.ResourceTypeNotes, []models.Resource{approved})
	svc.ResourceChanged(models.ResourceTypeNotes)

	select {
	case snap := <-snapshots:
		require.Len(t, snap, 1)
		assert.Equal(t, res.ID, snap[0].ID)
		assert.True(t, snap[0].Approved)
	case <-time.After(2 * time.Second):
		t.Fatal("approved submission never reached the subscriber")
	}
}

func TestDownloadURLRoundTrip(t *testing.T) {
	store := newStubStore()
	store.byID["r1"] = &models.Resource{ID: "r1", FileKey: "uploads/1_a.pdf", FileName: "a.pdf"}
	svc := newTestCatalogService(store, newStubBlob())

	_, err := svc.GetDownloadURL(context.Background(), "r1")
	require.Error(t, err) // no signer wired in tests
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
