package record

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis appends each collection path to its own stream.  XADD assigns
// “<ms>-<seq>” IDs server-side, which are unique and ordered, matching the
// append-only contract without any client-side ID scheme.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a stream-backed store.  Keys are prefix + path, e.g.
// “laxmi:contactMessages”.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Append runs XADD with the fields in sorted key order.
func (r *Redis) Append(ctx context.Context, path string, fields Fields) (ID, error) {
	values := make([]any, 0, len(fields)*2)
	for _, k := range fields.Keys() {
		values = append(values, k, fields[k])
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.key(path),
		ID:     "*",
		Values: values,
	}).Result()
	if err != nil {
		return "", err
	}
	return ID(id), nil
}

// List reads the whole stream for path, oldest first.
func (r *Redis) List(ctx context.Context, path string) ([]Entry, error) {
	msgs, err := r.client.XRange(ctx, r.key(path), "-", "+").Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		f := make(Fields, len(m.Values))
		for k, v := range m.Values {
			if s, ok := v.(string); ok {
				f[k] = s
			}
		}
		out = append(out, Entry{ID: ID(m.ID), Fields: f})
	}
	return out, nil
}

func (r *Redis) key(path string) string { return r.prefix + path }
