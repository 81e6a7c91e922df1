package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"streamsalvage/internal/domain"
)

// ForensicFilter narrows forensic log retrieval. Zero values match all.
type ForensicFilter struct {
	Verdict      domain.Verdict
	NameContains string
	From         time.Time
	To           time.Time
}

// InsertForensicEntry appends one resolution record.
func (d *Database) InsertForensicEntry(ctx context.Context, e domain.ForensicEntry) error {
	attempts, err := json.Marshal(e.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO forensic_log (id, channel_identity, channel_name, channel_url, verdict, attempts, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Channel.Identity, e.Channel.Name, e.Channel.URL, string(e.Verdict),
		string(attempts), e.Recommendation, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert forensic entry: %w", err)
	}
	return nil
}

// ForensicEntries returns entries matching the filter, newest first.
func (d *Database) ForensicEntries(ctx context.Context, f ForensicFilter) ([]domain.ForensicEntry, error) {
	var (
		conds []string
		args  []any
	)
	if f.Verdict != "" {
		conds = append(conds, "verdict = ?")
		args = append(args, string(f.Verdict))
	}
	if f.NameContains != "" {
		conds = append(conds, "channel_name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+f.NameContains+"%")
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.Unix())
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.To.Unix())
	}

	query := "SELECT id, channel_identity, channel_name, channel_url, verdict, attempts, recommendation, created_at FROM forensic_log"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forensic log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.ForensicEntry
	for rows.Next() {
		var (
			e         domain.ForensicEntry
			verdict   string
			attempts  string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Channel.Identity, &e.Channel.Name, &e.Channel.URL,
			&verdict, &attempts, &e.Recommendation, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan forensic entry: %w", err)
		}
		e.Verdict = domain.Verdict(verdict)
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		if err := json.Unmarshal([]byte(attempts), &e.Attempts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attempts for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forensic log: %w", err)
	}
	return entries, nil
}

// DeleteForensicEntry removes one entry by id.
func (d *Database) DeleteForensicEntry(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM forensic_log WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete forensic entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("forensic entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// PurgeForensicLog removes every entry and returns the deleted count.
func (d *Database) PurgeForensicLog(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM forensic_log")
	if err != nil {
		return 0, fmt.Errorf("failed to purge forensic log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	return n, nil
}
