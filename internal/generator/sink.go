package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/pkg/storage"
)

// ErrAwaitTimeout is returned when a job result does not appear in time.
var ErrAwaitTimeout = errors.New("generation result not received")

// JobKey is the storage key of a submitted job.
func JobKey(id uuid.UUID) string {
	return fmt.Sprintf("generations/%s.json", id)
}

// ResultKey is the storage key an external worker writes on completion.
func ResultKey(id uuid.UUID) string {
	return fmt.Sprintf("generations/%s.result.json", id)
}

// BlobSink writes asset requests to blob storage for an external 3D worker.
// With an await timeout it holds each submission open until the worker's
// result blob appears.
type BlobSink struct {
	store  storage.System
	await  time.Duration
	poll   time.Duration
	logger *slog.Logger
}

// NewBlobSink creates a BlobSink from cfg.
func NewBlobSink(store storage.System, cfg *Config, logger *slog.Logger) *BlobSink {
	return &BlobSink{
		store:  store,
		await:  cfg.AwaitTimeoutDuration(),
		poll:   cfg.PollIntervalDuration(),
		logger: logger.With("system", "asset-sink"),
	}
}

func (s *BlobSink) Submit(ctx context.Context, req AssetRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal asset request: %w", err)
	}

	key := JobKey(req.ID)
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("upload asset request: %w", err)
	}

	s.logger.InfoContext(ctx, "asset job submitted", "id", req.ID, "key", key)

	if s.await <= 0 {
		return nil
	}
	return s.awaitResult(ctx, req.ID)
}

func (s *BlobSink) awaitResult(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.await)
	defer cancel()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	key := ResultKey(id)
	for {
		ok, err := s.store.Exists(ctx, key)
		if err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "result check failed", "key", key, "error", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrAwaitTimeout, key)
		case <-ticker.C:
		}
	}
}
