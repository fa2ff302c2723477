package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studystack/studystack-api/internal/dto"
	"github.com/studystack/studystack-api/internal/models"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
	"github.com/studystack/studystack-api/pkg/storage"
)

type resourceStore interface {
	Ready() bool
	Create(ctx context.Context, res *models.Resource) error
	ListApproved(ctx context.Context, resourceType models.ResourceType) ([]models.Resource, error)
	ListPending(ctx context.Context) ([]models.Resource, error)
	GetByID(ctx context.Context, id string) (*models.Resource, error)
}

type blobStorage interface {
	SaveStream(key string, r io.Reader) (string, error)
	URL(key string) string
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type downloadSigner interface {
	Generate(resourceID, key string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (resourceID, key string, expiresAt time.Time, err error)
}

// SnapshotFunc receives complete replacement snapshots of one category.
// Consumers must replace their state entirely on every invocation.
type SnapshotFunc func([]models.Resource)

// ResourceUpload carries the raw PDF payload of a submission.
type ResourceUpload struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// ResourceDownload bundles a stored file handle for streaming.
type ResourceDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	ExpiresAt time.Time
}

// CatalogServiceConfig holds validation bounds and read-path tuning.
type CatalogServiceConfig struct {
	MaxSemester     int
	SnapshotTTL     time.Duration
	PollInterval    time.Duration
	FallbackEnabled bool
	APIPrefix       string
	MaxFileSize     int64
}

// CatalogService is the single gateway to the resource store: live
// subscriptions and one-shot listings on the read side, submissions and the
// download flow on the write side.
//
// Reads are fail-soft (store trouble degrades to a fallback or empty result,
// logged, never surfaced); writes are fail-loud. Both behaviours are part of
// the contract, not an implementation accident.
type CatalogService struct {
	repo      resourceStore
	storage   blobStorage
	signer    downloadSigner
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CatalogServiceConfig

	hub *changeHub
}

// NewCatalogService constructs the service with defaults.
func NewCatalogService(repo resourceStore, blob blobStorage, signer downloadSigner, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CatalogServiceConfig) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxSemester <= 0 {
		cfg.MaxSemester = 8
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 25 * 1024 * 1024
	}
	return &CatalogService{
		repo:      repo,
		storage:   blob,
		signer:    signer,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		hub:       newChangeHub(),
	}
}

// ListApproved returns the current snapshot for one category, newest first.
// Store failures degrade to the static fallback set so browsing always
// renders something; the condition is logged, never returned.
func (s *CatalogService) ListApproved(ctx context.Context, resourceType models.ResourceType) []models.Resource {
	cacheKey := approvedCacheKey(resourceType)
	var cached []models.Resource
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached
	}

	snapshot, err := s.repo.ListApproved(ctx, resourceType)
	if err != nil {
		s.logger.Warn("approved listing unavailable, degrading to fallback",
			zap.String("resource_type", string(resourceType)), zap.Error(err))
		s.metrics.FallbackServed()
		if s.cfg.FallbackEnabled {
			return models.FallbackResources(resourceType)
		}
		return []models.Resource{}
	}
	if snapshot == nil {
		snapshot = []models.Resource{}
	}
	_ = s.cache.Set(ctx, cacheKey, snapshot, s.cfg.SnapshotTTL)
	return snapshot
}

// ListPending returns every record awaiting moderation. A missing or
// unreachable store yields an empty list, never an error: callers cannot
// distinguish the two, and must not try. Results are never cached so that a
// rejected record reappears on the next fetch.
func (s *CatalogService) ListPending(ctx context.Context) []models.Resource {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		s.logger.Warn("pending listing unavailable, returning empty queue", zap.Error(err))
		return []models.Resource{}
	}
	if pending == nil {
		return []models.Resource{}
	}
	return pending
}

// SubscribeApproved registers fn for snapshot deliveries of one category.
// The initial snapshot is delivered immediately; afterwards fn runs again
// whenever a write changes the matching set, plus on a poll interval that
// covers writes from other processes. Each category is an independent
// stream.
//
// The returned disposer stops delivery. It is safe to call repeatedly and
// safe to call while a delivery is in flight: a completion arriving after
// disposal is silently discarded.
func (s *CatalogService) SubscribeApproved(resourceType models.ResourceType, fn SnapshotFunc) func() {
	sub := &subscription{fn: fn, done: make(chan struct{})}
	notify := s.hub.register(resourceType)
	s.metrics.SubscriptionOpened()

	go s.pump(sub, notify, resourceType)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.close()
			close(sub.done)
			s.hub.unregister(notify)
			s.metrics.SubscriptionClosed()
		})
	}
}

func (s *CatalogService) pump(sub *subscription, notify *hubSubscriber, resourceType models.ResourceType) {
	deliver := func() {
		snapshot := s.ListApproved(context.Background(), resourceType)
		if sub.deliver(snapshot) {
			s.metrics.SnapshotDelivered(string(resourceType))
		}
	}

	deliver()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sub.done:
			return
		case <-notify.ch:
			deliver()
		case <-ticker.C:
			deliver()
		}
	}
}

// Submit validates a contribution, stores the PDF blob and inserts the
// pending record, in that order. Unlike the read paths this fails loudly: a
// submission that silently vanished would deceive the contributor.
func (s *CatalogService) Submit(ctx context.Context, req dto.SubmitResourceRequest, upload ResourceUpload) (*models.Resource, error) {
	if err := s.validateSubmission(req, upload); err != nil {
		return nil, err
	}
	if !s.repo.Ready() {
		return nil, appErrors.Clone(appErrors.ErrBackendUnavailable, "submissions are disabled: backing store not configured")
	}

	now := time.Now().UTC()
	key := storage.UploadKey(upload.FileName, now)
	if _, err := s.storage.SaveStream(key, upload.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to store uploaded file")
	}

	res := &models.Resource{
		Title:        strippedTitle(upload.FileName),
		Degree:       req.Degree,
		Branch:       req.Branch,
		Semester:     req.Semester,
		Subject:      req.Subject,
		ResourceType: req.ResourceType,
		PDFURL:       s.storage.URL(key),
		FileName:     upload.FileName,
		FileKey:      key,
		SubmittedBy:  normalizeSubmitter(req.SubmittedByName),
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		// no metadata may point at a blob that was rolled back, and vice versa
		_ = s.storage.Delete(key)
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to persist submission")
	}

	s.logger.Info("resource submitted",
		zap.String("id", res.ID),
		zap.String("resource_type", string(res.ResourceType)),
		zap.String("file", res.FileName))
	return res, nil
}

// ResourceChanged invalidates cached snapshots of a category and wakes its
// live subscriptions. The moderation workflow calls this after every
// approval-flag write.
func (s *CatalogService) ResourceChanged(resourceType models.ResourceType) {
	_ = s.cache.Invalidate(context.Background(), approvedCacheKey(resourceType))
	s.hub.notify(resourceType)
}

// GetDownloadURL generates a signed URL for fetching the stored PDF.
func (s *CatalogService) GetDownloadURL(ctx context.Context, id string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", appErrors.ErrNotFound
	}
	token, _, err := s.signer.Generate(res.ID, res.FileKey)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return fmt.Sprintf("%s/downloads/%s?token=%s", base, res.ID, token), nil
}

// Download validates the token and opens the stored file for streaming.
func (s *CatalogService) Download(ctx context.Context, id, token string) (*ResourceDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	resourceID, key, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if resourceID != res.ID || key != res.FileKey {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat stored file")
	}
	return &ResourceDownload{
		File:      file,
		Filename:  res.FileName,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *CatalogService) validateSubmission(req dto.SubmitResourceRequest, upload ResourceUpload) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if !req.ResourceType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "resourceType must be one of "+models.ResourceTypeNames())
	}
	if !models.ValidDegree(req.Degree) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown degree")
	}
	if !models.ValidSemester(req.Semester, s.cfg.MaxSemester) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, s.cfg.MaxSemester))
	}
	if upload.Content == nil || upload.FileName == "" {
		return appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if !strings.EqualFold(filepath.Ext(upload.FileName), ".pdf") {
		return appErrors.Clone(appErrors.ErrValidation, "only PDF files are accepted")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	return nil
}

func approvedCacheKey(resourceType models.ResourceType) string {
	return "catalog:approved:" + string(resourceType)
}

func strippedTitle(fileName string) string {
	if strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return fileName[:len(fileName)-len(".pdf")]
	}
	return fileName
}

func normalizeSubmitter(name string) *string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// subscription guards callback delivery so that nothing reaches the consumer
// after disposal, even when a snapshot load completes concurrently.
type subscription struct {
	mu     sync.Mutex
	closed bool
	fn     SnapshotFunc
	done   chan struct{}
}

func (s *subscription) deliver(snapshot []models.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.fn(snapshot)
	return true
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// changeHub fans write notifications out to per-category subscribers. Sends
// never block: a pending notification already implies a reload.
type changeHub struct {
	mu   sync.Mutex
	subs map[*hubSubscriber]struct{}
}

type hubSubscriber struct {
	resourceType models.ResourceType
	ch           chan struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[*hubSubscriber]struct{})}
}

func (h *changeHub) register(resourceType models.ResourceType) *hubSubscriber {
	sub := &hubSubscriber{resourceType: resourceType, ch: make(chan struct{}, 1)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *changeHub) unregister(sub *hubSubscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

func (h *changeHub) notify(resourceType models.ResourceType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.resourceType != resourceType {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}
