package store

import (
	"context"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

// NopStore discards every record. Used when store.path is empty.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Record(context.Context, model.ClassificationRecord) error { return nil }
func (s *NopStore) Recent(context.Context, int) ([]model.ClassificationRecord, error) {
	return nil, nil
}
func (s *NopStore) Cleanup(context.Context, time.Duration) (int64, error) { return 0, nil }
