package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"streamsalvage/internal/domain"
)

// InsertAlternate records a new crowd-sourced alternate with zero votes.
// Re-submitting an existing (channel, url) pair is a no-op.
func (d *Database) InsertAlternate(ctx context.Context, channel, url string) (int64, error) {
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO alternates (channel, url)
		VALUES (?, ?)
		ON CONFLICT(channel, url) DO NOTHING
	`, channel, url)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alternate: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already present; look up the existing id.
		var id int64
		err := d.db.QueryRowContext(ctx,
			"SELECT id FROM alternates WHERE channel = ? AND url = ?", channel, url).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to find existing alternate: %w", err)
		}
		return id, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read alternate id: %w", err)
	}
	return id, nil
}

// AlternatesForChannel returns the channel's crowd submissions sorted by
// net votes descending, then by age ascending.
func (d *Database) AlternatesForChannel(ctx context.Context, channel string) ([]domain.Alternate, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, channel, url, upvotes, downvotes
		FROM alternates
		WHERE channel = ?
		ORDER BY (upvotes - downvotes) DESC, id ASC
	`, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to query alternates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alts []domain.Alternate
	for rows.Next() {
		var a domain.Alternate
		if err := rows.Scan(&a.ID, &a.Channel, &a.URL, &a.Upvotes, &a.Downvotes); err != nil {
			return nil, fmt.Errorf("failed to scan alternate: %w", err)
		}
		alts = append(alts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alternates: %w", err)
	}
	return alts, nil
}

// UpvoteAlternate increments the upvote counter and returns the row.
func (d *Database) UpvoteAlternate(ctx context.Context, id int64) (domain.Alternate, error) {
	return d.vote(ctx, id, "upvotes")
}

// DownvoteAlternate increments the downvote counter and returns the row.
// The caller decides whether the downvote threshold triggers removal.
func (d *Database) DownvoteAlternate(ctx context.Context, id int64) (domain.Alternate, error) {
	return d.vote(ctx, id, "downvotes")
}

func (d *Database) vote(ctx context.Context, id int64, column string) (domain.Alternate, error) {
	// column is one of two compile-time constants, never user input.
	_, err := d.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE alternates SET %s = %s + 1 WHERE id = ?", column, column), id)
	if err != nil {
		return domain.Alternate{}, fmt.Errorf("failed to vote on alternate: %w", err)
	}

	var a domain.Alternate
	err = d.db.QueryRowContext(ctx, `
		SELECT id, channel, url, upvotes, downvotes FROM alternates WHERE id = ?
	`, id).Scan(&a.ID, &a.Channel, &a.URL, &a.Upvotes, &a.Downvotes)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Alternate{}, fmt.Errorf("alternate %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Alternate{}, fmt.Errorf("failed to read alternate: %w", err)
	}
	return a, nil
}

// DeleteAlternate removes one crowd alternate by id.
func (d *Database) DeleteAlternate(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM alternates WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete alternate: %w", err)
	}
	return nil
}
