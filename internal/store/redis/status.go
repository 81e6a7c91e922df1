package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"streamsalvage/internal/domain"
)

// ChannelStatus is the persisted online/offline state of one channel.
type ChannelStatus struct {
	Channel   domain.Channel `json:"channel"`
	Online    bool           `json:"online"`
	CheckedAt time.Time      `json:"checked_at"`
}

// SetChannelStatus upserts a channel's status and keeps the offline set
// in sync so the refresher can enumerate candidates cheaply.
func (s *Store) SetChannelStatus(ctx context.Context, status ChannelStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal channel status: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, StatusKey(status.Channel.Identity), data, 0)
	if status.Online {
		pipe.SRem(ctx, KeyOfflineChannels, status.Channel.Identity)
	} else {
		pipe.SAdd(ctx, KeyOfflineChannels, status.Channel.Identity)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save channel status: %w", err)
	}
	return nil
}

// GetChannelStatus returns a channel's status, or (nil, nil) when the
// channel has never been checked.
func (s *Store) GetChannelStatus(ctx context.Context, identity string) (*ChannelStatus, error) {
	data, err := s.client.Get(ctx, StatusKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel status: %w", err)
	}

	var status ChannelStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel status: %w", err)
	}
	return &status, nil
}

// OfflineChannels returns every channel currently flagged offline.
func (s *Store) OfflineChannels(ctx context.Context) ([]domain.Channel, error) {
	ids, err := s.client.SMembers(ctx, KeyOfflineChannels).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list offline channels: %w", err)
	}

	channels := make([]domain.Channel, 0, len(ids))
	for _, id := range ids {
		status, err := s.GetChannelStatus(ctx, id)
		if err != nil || status == nil {
			// Stale set member; skip it.
			continue
		}
		channels = append(channels, status.Channel)
	}
	return channels, nil
}
