package forensic

import (
	"context"
	"time"

	"github.com/google/uuid"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/store/sqlite"
)

// Service is the durable record of every completed resolution. It wraps the
// sqlite store with id assignment, aggregation and export formats.
type Service struct {
	db     *sqlite.Database
	logger logger.Logger
}

func New(db *sqlite.Database, log logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

// Record persists one resolution outcome for a channel. The entry id is
// assigned here.
func (s *Service) Record(ctx context.Context, ch domain.Channel, res domain.ResolutionResult) (domain.ForensicEntry, error) {
	entry := domain.ForensicEntry{
		ID:             uuid.NewString(),
		Channel:        ch,
		Verdict:        res.Verdict,
		Attempts:       res.Attempts,
		Recommendation: res.Recommendation,
		CreatedAt:      res.Timestamp,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := s.db.InsertForensicEntry(ctx, entry); err != nil {
		return domain.ForensicEntry{}, err
	}

	s.logger.Debug("forensic entry recorded",
		logger.String("id", entry.ID),
		logger.String("channel", ch.Name),
		logger.String("verdict", string(entry.Verdict)),
	)
	return entry, nil
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, f sqlite.ForensicFilter) ([]domain.ForensicEntry, error) {
	return s.db.ForensicEntries(ctx, f)
}

// Delete removes a single entry by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.DeleteForensicEntry(ctx, id)
}

// Purge wipes the whole log and returns how many entries were removed.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	n, err := s.db.PurgeForensicLog(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("forensic log purged", logger.Int64("removed", n))
	return n, nil
}
