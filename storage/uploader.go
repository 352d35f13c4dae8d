package storage

import (
	"context"
	"io"
)

// Object keys of the published tournament snapshot.
const (
	SnapshotStateKey    = "snapshots/state.json"
	SnapshotWorkbookKey = "snapshots/tournament.xlsx"
	SnapshotChartKey    = "snapshots/standings.png"
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePNG      = "image/png"
)

// SnapshotKeys lists every object a sync writes.
var SnapshotKeys = []string{SnapshotStateKey, SnapshotWorkbookKey, SnapshotChartKey}

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
