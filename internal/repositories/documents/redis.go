package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/rpg-community-bot/internal/redis"
)

const (
	// Key patterns: doc:{collection}:{id} and doc:{collection}:_index
	documentKeyPrefix = "doc:"
	indexKeySuffix    = ":_index"
)

// RedisConfig contains configuration for the Redis document repository.
type RedisConfig struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedis creates a new Redis-backed document repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  c,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if err := validateKey(input.Collection, input.ID); err != nil {
		return nil, err
	}

	doc, err := r.get(ctx, input.Collection, input.ID)
	if err != nil {
		return nil, err
	}

	return &GetOutput{Document: doc}, nil
}

func (r *redisRepository) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if err := validateKey(input.Collection, input.ID); err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, errors.InvalidArgument(errDataEmpty)
	}

	now := r.clock.Now()
	doc := &Document{
		Collection: input.Collection,
		ID:         input.ID,
		Data:       input.Data,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, err := r.get(ctx, input.Collection, input.ID)
	switch {
	case err == nil:
		doc.Version = existing.Version + 1
		doc.CreatedAt = existing.CreatedAt
	case !errors.IsNotFound(err):
		return nil, err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal document")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.documentKey(input.Collection, input.ID), payload, 0)
	pipe.SAdd(ctx, r.indexKey(input.Collection), input.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to save document %s/%s", input.Collection, input.ID)
	}

	return &SaveOutput{Document: doc}, nil
}

func (r *redisRepository) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	if input.Collection == "" {
		return nil, errors.InvalidArgument(errCollectionEmpty)
	}

	indexKey := r.indexKey(input.Collection)
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read index %s", indexKey)
	}

	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, err := r.get(ctx, input.Collection, id)
		if err != nil {
			// If the document is gone, clean up the index
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "document missing, cleaning up index",
					"collection", input.Collection,
					"id", id)
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}

	return &ListOutput{Documents: docs}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if err := validateKey(input.Collection, input.ID); err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.documentKey(input.Collection, input.ID))
	pipe.SRem(ctx, r.indexKey(input.Collection), input.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete document %s/%s", input.Collection, input.ID)
	}
	if del.Val() == 0 {
		return nil, notFound(input.Collection, input.ID)
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) get(ctx context.Context, collection, id string) (*Document, error) {
	result, err := r.client.Get(ctx, r.documentKey(collection, id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, notFound(collection, id)
		}
		return nil, errors.Wrapf(err, "failed to get document %s/%s", collection, id)
	}

	var doc Document
	if err := json.Unmarshal([]byte(result), &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal document %s/%s", collection, id)
	}

	return &doc, nil
}

func (r *redisRepository) documentKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", documentKeyPrefix, collection, id)
}

func (r *redisRepository) indexKey(collection string) string {
	return documentKeyPrefix + collection + indexKeySuffix
}
