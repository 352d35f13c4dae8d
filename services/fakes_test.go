package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/x1-arena/models"
	"github.com/Dosada05/x1-arena/repositories"
	"github.com/Dosada05/x1-arena/storage"
	"github.com/Dosada05/x1-arena/utils"
)

func TestMain(m *testing.M) {
	utils.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryRepo struct {
	mu      sync.Mutex
	state   models.TournamentState
	saves   int
	loadErr error
	saveErr error
}

func (r *memoryRepo) EnsureSchema(context.Context) error { return nil }

func (r *memoryRepo) Load(context.Context) (models.TournamentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return models.TournamentState{}, r.loadErr
	}
	return r.state.Clone(), nil
}

func (r *memoryRepo) Save(_ context.Context, _ repositories.SQLExecutor, state models.TournamentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.state = state.Clone()
	r.saves++
	return nil
}

func (r *memoryRepo) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = models.TournamentState{}
	return nil
}

func (r *memoryRepo) snapshot() models.TournamentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

type recordingUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	calls   int
	err     error
}

func newRecordingUploader() *recordingUploader {
	return &recordingUploader{objects: map[string][]byte{}}
}

func (u *recordingUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	u.objects[key] = bytes.Clone(body)
	return &storage.UploadResult{Key: key}, nil
}

func (u *recordingUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return u.err
	}
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *recordingUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }

func (u *recordingUploader) object(key string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.objects[key]
	return b, ok
}

func (u *recordingUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

type published struct {
	room, eventType string
	payload         any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (b *recordingBroadcaster) Publish(room, eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{room, eventType, payload})
}

func (b *recordingBroadcaster) all() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.events...)
}

// gatedBroadcaster holds its first Publish until release is closed.
type gatedBroadcaster struct {
	recordingBroadcaster
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedBroadcaster() *gatedBroadcaster {
	return &gatedBroadcaster{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *gatedBroadcaster) Publish(room, eventType string, payload any) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	b.recordingBroadcaster.Publish(room, eventType, payload)
}

var errUnavailable = errors.New("store unavailable")

type harness struct {
	svc         *tournamentService
	repo        *memoryRepo
	uploader    *recordingUploader
	broadcaster *recordingBroadcaster
	metrics     *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:        &memoryRepo{},
		uploader:    newRecordingUploader(),
		broadcaster: &recordingBroadcaster{},
		metrics:     NewMetrics(prometheus.NewRegistry()),
	}
	logger := discardLogger()
	svc := NewTournamentService(h.repo, NewSnapshotSyncer(h.uploader, logger), h.broadcaster, h.metrics, time.Second, logger)
	h.svc = svc.(*tournamentService)
	h.svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.svc.Shutdown(ctx)
	})
	return h
}
