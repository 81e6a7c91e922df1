package registry

import (
	"context"
	"fmt"
	"sort"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/store/sqlite"
)

// MinCuratedSuccessRate filters curated alternates; ones that work less
// than half the time are not worth a candidate slot.
const MinCuratedSuccessRate = 0.5

// Registry supplies ordered candidate URLs for a channel: the original
// first, then curated alternates, then crowd submissions.
type Registry struct {
	curated           map[string][]domain.Alternate
	db                *sqlite.Database
	logger            logger.Logger
	downvoteThreshold int
}

// New creates a registry over a curated table and the crowd store.
func New(curated map[string][]domain.Alternate, db *sqlite.Database, log logger.Logger, downvoteThreshold int) *Registry {
	if curated == nil {
		curated = map[string][]domain.Alternate{}
	}
	if downvoteThreshold <= 0 {
		downvoteThreshold = 3
	}
	return &Registry{
		curated:           curated,
		db:                db,
		logger:            log,
		downvoteThreshold: downvoteThreshold,
	}
}

// Candidates returns the ordered candidate URL list for a channel.
// Curated alternates are filtered to success rate > 0.5 and sorted
// descending; crowd submissions (sorted by votes) are consulted only when
// no curated alternate qualifies. The original URL always comes first and
// duplicates are dropped.
func (r *Registry) Candidates(ctx context.Context, identity, originalURL string) []string {
	candidates := []string{originalURL}
	seen := map[string]bool{originalURL: true}

	curated := r.curatedFor(identity)
	for _, alt := range curated {
		if !seen[alt.URL] {
			candidates = append(candidates, alt.URL)
			seen[alt.URL] = true
		}
	}
	if len(curated) > 0 {
		return candidates
	}

	if r.db == nil {
		return candidates
	}
	crowd, err := r.db.AlternatesForChannel(ctx, identity)
	if err != nil {
		// Alternates are an enhancement; the original URL still gets tried.
		r.logger.Warn("failed to load crowd alternates",
			logger.String("channel", identity),
			logger.Error(err))
		return candidates
	}
	for _, alt := range crowd {
		if !seen[alt.URL] {
			candidates = append(candidates, alt.URL)
			seen[alt.URL] = true
		}
	}
	return candidates
}

func (r *Registry) curatedFor(identity string) []domain.Alternate {
	all := r.curated[identity]
	qualified := make([]domain.Alternate, 0, len(all))
	for _, alt := range all {
		if alt.SuccessRate > MinCuratedSuccessRate {
			qualified = append(qualified, alt)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].SuccessRate > qualified[j].SuccessRate
	})
	return qualified
}

// Submit records a new crowd alternate with zero votes.
func (r *Registry) Submit(ctx context.Context, identity, url string) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("crowd alternates unavailable: no store configured")
	}
	id, err := r.db.InsertAlternate(ctx, identity, url)
	if err != nil {
		return 0, &domain.StorageError{Op: "submit alternate", Err: err}
	}
	r.logger.Info("crowd alternate submitted",
		logger.String("channel", identity),
		logger.String("url", url),
		logger.Int64("id", id))
	return id, nil
}

// Upvote increments an alternate's upvote counter.
func (r *Registry) Upvote(ctx context.Context, id int64) (domain.Alternate, error) {
	if r.db == nil {
		return domain.Alternate{}, fmt.Errorf("crowd alternates unavailable: no store configured")
	}
	alt, err := r.db.UpvoteAlternate(ctx, id)
	if err != nil {
		return domain.Alternate{}, &domain.StorageError{Op: "upvote alternate", Err: err}
	}
	return alt, nil
}

// Downvote increments an alternate's downvote counter and removes the
// alternate once it accumulates more than the configured threshold.
func (r *Registry) Downvote(ctx context.Context, id int64) (domain.Alternate, bool, error) {
	if r.db == nil {
		return domain.Alternate{}, false, fmt.Errorf("crowd alternates unavailable: no store configured")
	}
	alt, err := r.db.DownvoteAlternate(ctx, id)
	if err != nil {
		return domain.Alternate{}, false, &domain.StorageError{Op: "downvote alternate", Err: err}
	}

	if alt.Downvotes > r.downvoteThreshold {
		if err := r.db.DeleteAlternate(ctx, id); err != nil {
			return alt, false, &domain.StorageError{Op: "prune alternate", Err: err}
		}
		r.logger.Info("crowd alternate pruned by downvotes",
			logger.String("channel", alt.Channel),
			logger.String("url", alt.URL),
			logger.Int("downvotes", alt.Downvotes))
		return alt, true, nil
	}
	return alt, false, nil
}

// Crowd returns the stored crowd alternates for a channel, best first.
func (r *Registry) Crowd(ctx context.Context, identity string) ([]domain.Alternate, error) {
	if r.db == nil {
		return nil, nil
	}
	alts, err := r.db.AlternatesForChannel(ctx, identity)
	if err != nil {
		return nil, &domain.StorageError{Op: "list alternates", Err: err}
	}
	return alts, nil
}
