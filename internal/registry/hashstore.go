package registry

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/rueidis"
)

// HashStore remembers the definition hash last written for each scoped command.
type HashStore interface {
	Get(ctx context.Context, key ScopedKey) (string, bool, error)
	Set(ctx context.Context, key ScopedKey, hash string) error
	Delete(ctx context.Context, key ScopedKey) error
}

// MemoryHashStore keeps hashes for the lifetime of the process.
type MemoryHashStore struct {
	mu     sync.RWMutex
	hashes map[ScopedKey]string
}

// NewMemoryHashStore creates an empty in-process hash store.
func NewMemoryHashStore() *MemoryHashStore {
	return &MemoryHashStore{hashes: make(map[ScopedKey]string)}
}

func (s *MemoryHashStore) Get(_ context.Context, key ScopedKey) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[key]
	return hash, ok, nil
}

func (s *MemoryHashStore) Set(_ context.Context, key ScopedKey, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[key] = hash
	return nil
}

func (s *MemoryHashStore) Delete(_ context.Context, key ScopedKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, key)
	return nil
}

// RedisHashStore keeps one redis hash per scope so hashes survive restarts.
type RedisHashStore struct {
	client rueidis.Client
	prefix string
}

// NewRedisHashStore creates a hash store on the given client. Keys are "<prefix>:<scope>".
func NewRedisHashStore(client rueidis.Client, prefix string) *RedisHashStore {
	if prefix == "" {
		prefix = "slashcore:hashes"
	}
	return &RedisHashStore{client: client, prefix: prefix}
}

func (s *RedisHashStore) key(key ScopedKey) (string, string) {
	return s.prefix + ":" + scopeLabel(key), strconv.Itoa(int(key.Type)) + ":" + key.Name
}

func (s *RedisHashStore) Get(ctx context.Context, key ScopedKey) (string, bool, error) {
	redisKey, field := s.key(key)
	hash, err := s.client.Do(ctx, s.client.B().Hget().Key(redisKey).Field(field).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read definition hash: %w", err)
	}
	return hash, true, nil
}

func (s *RedisHashStore) Set(ctx context.Context, key ScopedKey, hash string) error {
	redisKey, field := s.key(key)
	cmd := s.client.B().Hset().Key(redisKey).FieldValue().FieldValue(field, hash).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store definition hash: %w", err)
	}
	return nil
}

func (s *RedisHashStore) Delete(ctx context.Context, key ScopedKey) error {
	redisKey, field := s.key(key)
	if err := s.client.Do(ctx, s.client.B().Hdel().Key(redisKey).Field(field).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete definition hash: %w", err)
	}
	return nil
}

func scopeLabel(key ScopedKey) string {
	if key.GuildID == 0 {
		return "global"
	}
	return key.GuildID.String()
}
