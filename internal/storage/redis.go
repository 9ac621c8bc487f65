package storage

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const redisChangeChannel = "agribasket:changes"

// Redis is a shared area backed by Redis; separate engine processes pointed
// at the same database see each other's writes through pub/sub, which makes
// them behave like two browser tabs sharing storage.
type Redis struct {
	Client *redis.Client
	addr   string
	// senderID lets a watcher skip events published by this handle.
	senderID string
}

func NewRedis(addr string) *Redis {
	return &Redis{
		addr:     addr,
		senderID: uuid.New().String(),
	}
}

func (r *Redis) Start(ctx context.Context) error {
	r.Client = redis.NewClient(&redis.Options{
		Addr: r.addr,
	})

	if _, err := r.Client.Ping(ctx).Result(); err != nil {
		return err
	}

	return nil
}

func (r *Redis) Stop(ctx context.Context) error {
	return r.Client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.Client.Set(ctx, key, value, 0).Err(); err != nil {
		return err
	}
	r.publish(ctx, key)
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return err
	}
	r.publish(ctx, key)
	return nil
}

func (r *Redis) publish(ctx context.Context, key string) {
	// best effort, a missed event only delays a re-read
	_ = r.Client.Publish(ctx, redisChangeChannel, r.senderID+"|"+key).Err()
}

// Watch subscribes to change events for key published by other handles.
func (r *Redis) Watch(ctx context.Context, key string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	sub := r.Client.Subscribe(ctx, redisChangeChannel)

	go func() {
		defer close(ch)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				sender, changed, found := strings.Cut(msg.Payload, "|")
				if !found || changed != key || sender == r.senderID {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch
}
