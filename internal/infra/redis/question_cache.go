package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

var _ app.QuestionCache = (*QuestionCache)(nil)

const questionKeyPrefix = "trivia:question:"

// QuestionCache caches question records in Redis (hash per question) and
// falls back to a loader on cache miss.
//
//	HSET trivia:question:{id} text .. choices .. correct .. difficulty .. value .. category .. created
type QuestionCache struct {
	client *redis.Client
	loader app.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader app.QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	key := questionKey(id)

	if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		if q, ok := questionFromHash(id, fields); ok {
			return q, nil
		}
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// another goroutine may have filled it meanwhile
		if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
			if q, ok := questionFromHash(id, fields); ok {
				return q, nil
			}
		}

		q, err := c.loader.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		choices, _ := json.Marshal(q.Choices)
		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"text":       q.Text,
			"choices":    string(choices),
			"correct":    string(q.Correct),
			"difficulty": q.Difficulty,
			"value":      q.Value,
			"category":   q.CategoryID,
			"created":    q.CreatedAt.UnixNano(),
		})
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// Invalidate removes every cached question.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, questionKeyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

func questionKey(id string) string {
	return questionKeyPrefix + id
}

func questionFromHash(id string, fields map[string]string) (domain.Question, bool) {
	q := domain.Question{
		ID:         id,
		Text:       fields["text"],
		Correct:    domain.Label(fields["correct"]),
		CategoryID: fields["category"],
	}
	if err := json.Unmarshal([]byte(fields["choices"]), &q.Choices); err != nil {
		return domain.Question{}, false
	}
	q.Difficulty, _ = strconv.Atoi(fields["difficulty"])
	q.Value, _ = strconv.Atoi(fields["value"])
	if created, err := strconv.ParseInt(fields["created"], 10, 64); err == nil {
		q.CreatedAt = time.Unix(0, created).UTC()
	}
	if q.Validate() != nil {
		return domain.Question{}, false
	}
	return q, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
