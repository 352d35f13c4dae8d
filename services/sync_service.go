package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/x1-arena/models"
	"github.com/Dosada05/x1-arena/storage"
)

// SnapshotSyncer publishes a read-only copy of the tournament to object
// storage.
type SnapshotSyncer interface {
	Sync(ctx context.Context, state models.TournamentState) error
	Clear(ctx context.Context) error
}

type snapshotSyncer struct {
	uploader storage.FileUploader
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewSnapshotSyncer wraps the uploader in a circuit breaker: after three
// consecutive failed syncs further attempts are refused for a minute.
func NewSnapshotSyncer(uploader storage.FileUploader, logger *slog.Logger) SnapshotSyncer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "snapshot-sync",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("snapshot sync circuit changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &snapshotSyncer{uploader: uploader, breaker: breaker, logger: logger}
}

type snapshotObject struct {
	key         string
	contentType string
	body        []byte
}

func (s *snapshotSyncer) Sync(ctx context.Context, state models.TournamentState) error {
	objects, err := renderSnapshot(state.Redacted())
	if err != nil {
		return err
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		g, gCtx := errgroup.WithContext(ctx)
		for _, obj := range objects {
			g.Go(func() error {
				if _, err := s.uploader.Upload(gCtx, obj.key, obj.contentType, bytes.NewReader(obj.body)); err != nil {
					return fmt.Errorf("failed to upload %s: %w", obj.key, err)
				}
				return nil
			})
		}
		return nil, g.Wait()
	})
	if err != nil {
		return fmt.Errorf("snapshot sync failed: %w", err)
	}
	s.logger.Debug("snapshot synced", slog.Int("objects", len(objects)))
	return nil
}

// Clear removes every snapshot object. Missing objects are not an error for
// S3-compatible stores.
func (s *snapshotSyncer) Clear(ctx context.Context) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		g, gCtx := errgroup.WithContext(ctx)
		for _, key := range storage.SnapshotKeys {
			g.Go(func() error {
				return s.uploader.Delete(gCtx, key)
			})
		}
		return nil, g.Wait()
	})
	if err != nil {
		return fmt.Errorf("snapshot clear failed: %w", err)
	}
	return nil
}

func renderSnapshot(state models.TournamentState) ([]snapshotObject, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state snapshot: %w", err)
	}
	workbook, err := storage.BuildWorkbook(state)
	if err != nil {
		return nil, err
	}
	chart, err := storage.RenderStandingsChart(state.Competitors)
	if err != nil {
		return nil, err
	}
	return []snapshotObject{
		{storage.SnapshotStateKey, storage.ContentTypeJSON, stateJSON},
		{storage.SnapshotWorkbookKey, storage.ContentTypeWorkbook, workbook},
		{storage.SnapshotChartKey, storage.ContentTypePNG, chart},
	}, nil
}
