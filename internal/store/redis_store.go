/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/zprobst/cloud-conveyor/internal/apperrors"
)

// keyPrefix namespaces pipeline snapshot keys in the shared Redis
// keyspace, so this store can coexist with whatever else uses the
// instance.
const keyPrefix = "conveyor:pipeline:"

// RedisStore is a Store backed by a github.com/redis/go-redis/v9
// client, serializing each PipelineSnapshot as a JSON string under
// "conveyor:pipeline:{id}".
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-configured *redis.Client. The caller
// owns the client's lifecycle (including Close).
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) key(id string) string {
	return keyPrefix + id
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, snap PipelineSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to marshal pipeline snapshot")
	}
	if err := r.client.Set(ctx, r.key(snap.ID), payload, 0).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to save snapshot for pipeline %s", snap.ID)
	}
	return nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, id string) (PipelineSnapshot, bool, error) {
	payload, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PipelineSnapshot{}, false, nil
	}
	if err != nil {
		return PipelineSnapshot{}, false, apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to load snapshot for pipeline %s", id)
	}

	var snap PipelineSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return PipelineSnapshot{}, false, apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to unmarshal snapshot for pipeline %s", id)
	}
	return snap, true, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrorTypeInternal, "failed to delete snapshot for pipeline %s", id)
	}
	return nil
}

// ListIDs implements Store, scanning the keyspace for this store's
// prefix rather than KEYS, so it stays safe to run against a shared
// production Redis instance.
func (r *RedisStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to scan pipeline snapshot keys")
	}
	return ids, nil
}
