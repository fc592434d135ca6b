package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sorarelay/sorarelay/internal/domain"
)

// DefaultRecordTTL is how long resolution records stay dereferencable
// through the proxy endpoint.
const DefaultRecordTTL = 7 * 24 * time.Hour

// Origin tags which front-end produced a record.
type Origin string

const (
	OriginWeb Origin = "web"
	OriginBot Origin = "bot"
)

// lookupOrder fixes which record kind wins when both front-ends have
// resolved the same id. Bot records came first historically and are
// still consulted first.
var lookupOrder = []Origin{OriginBot, OriginWeb}

// Record is one completed resolution, persisted so the proxy endpoint
// can later dereference the id to the upstream media URL.
type Record struct {
	ID        string          `json:"id"`
	SourceURL string          `json:"source_url"`
	MediaURL  string          `json:"media_url"`
	Title     string          `json:"title,omitempty"`
	Provider  domain.Provider `json:"provider"`
	Origin    Origin          `json:"origin"`
	ClientIP  string          `json:"client_ip,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ErrRecordNotFound is returned by GetRecord for unknown ids.
var ErrRecordNotFound = errors.New("record not found")

// Store persists resolution records and download counters.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}
	return &Store{client: client, ttl: ttl}
}

// SaveRecord stores rec, minting an id and stamping the creation time
// when the caller left them empty.
func (s *Store) SaveRecord(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Origin == "" {
		rec.Origin = OriginWeb
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.Set(ctx, RecordKey(rec.Origin, rec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// GetRecord retrieves a record of a known origin by id.
func (s *Store) GetRecord(ctx context.Context, origin Origin, id string) (*Record, error) {
	data, err := s.client.Get(ctx, RecordKey(origin, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, origin, id)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// FindUpstreamURL resolves an opaque id to the last known direct media
// URL, trying each record kind in the fixed lookup order. ok is false
// when no origin has a record for id.
func (s *Store) FindUpstreamURL(ctx context.Context, id string) (string, bool, error) {
	for _, origin := range lookupOrder {
		rec, err := s.GetRecord(ctx, origin, id)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				continue
			}
			return "", false, err
		}
		if rec.MediaURL != "" {
			return rec.MediaURL, true, nil
		}
	}
	return "", false, nil
}

// IncrementDownloads bumps the per-provider download counter.
func (s *Store) IncrementDownloads(ctx context.Context, provider domain.Provider) error {
	if err := s.client.Incr(ctx, CounterKey(string(provider))).Err(); err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}
	return nil
}

// DownloadCounts returns the per-provider download counters.
func (s *Store) DownloadCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	iter := s.client.Scan(ctx, 0, keyPrefixCounter+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		n, err := s.client.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to read counter %s: %w", key, err)
		}
		counts[key[len(keyPrefixCounter):]] = n
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan counters: %w", err)
	}
	return counts, nil
}
