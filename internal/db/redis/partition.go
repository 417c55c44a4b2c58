package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/gplcatalog/internal/db"
)

// partitionKey hash-tags the partition name so the staging key shares its cluster slot.
func (s *Store) partitionKey(name string) string {
	return s.prefix + "{" + name + "}"
}

// LoadPartition returns every field of the partition hash.
func (s *Store) LoadPartition(ctx context.Context, name string) (map[string][]byte, error) {
	cmd := s.b().Hgetall().Key(s.partitionKey(name)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return map[string][]byte{}, nil
		}
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	entries := make(map[string][]byte, len(m))
	for k, v := range m {
		entries[k] = []byte(v)
	}
	return entries, nil
}

// ReplacePartition fills a staging hash and renames it over the live key,
// so readers see either the old or the new hash. An empty partition deletes the key.
func (s *Store) ReplacePartition(ctx context.Context, name string, entries map[string][]byte) error {
	key := s.partitionKey(name)
	if len(entries) == 0 {
		if err := s.do(ctx, s.b().Del().Key(key).Build()).Error(); err != nil {
			return &db.Error{Op: db.OpDel, Err: err}
		}
		return nil
	}

	staging := key + ":staging"
	hset := s.b().Hset().Key(staging).FieldValue()
	for k, v := range entries {
		hset = hset.FieldValue(k, string(v))
	}

	ops := []string{db.OpDel, db.OpHSet, db.OpRename}
	results := s.client.DoMulti(ctx,
		s.b().Del().Key(staging).Build(),
		hset.Build(),
		s.b().Rename().Key(staging).Newkey(key).Build(),
	)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: ops[i], Err: fmt.Errorf("partition %s: %w", name, err)}
		}
	}
	return nil
}

// PutEntry sets one field of the partition hash.
func (s *Store) PutEntry(ctx context.Context, name, key string, value []byte) error {
	cmd := s.b().Hset().Key(s.partitionKey(name)).FieldValue().FieldValue(key, string(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}
