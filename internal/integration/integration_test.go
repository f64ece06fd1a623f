package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/generator"
	"trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/infra/postgres/migrations"
	infraredis "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/logging"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := migrations.Apply(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	logger := logging.Discard()
	base := postgres.NewStore(pool)
	store := app.WithQuestionCache(base, infraredis.NewQuestionCache(redisClient, base, 5*time.Minute))
	gen := generator.NewStaticGenerator(domain.FallbackQuestions()[:3])
	replenisher := app.NewReplenisher(store, gen, nil, infraredis.NewPoolLock(redisClient, time.Minute), logger)
	service := app.NewGameService(store, app.NewSelector(store, store), replenisher, app.PointsPolicy{}, app.PoolSettings{
		MinQuestions: 3,
		MaxAttempts:  10,
	}, logger)

	game, err := service.Start(ctx, app.StartRequest{PlayerName: "Alice"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if n, _ := service.PoolSize(ctx); n != 3 {
		t.Fatalf("expected pool of 3 after replenishment, got %d", n)
	}

	expected := 0
	for i := 0; i < 3; i++ {
		turn, err := service.Advance(ctx, game.ID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if turn.Finished || turn.Question == nil {
			t.Fatalf("unexpected end of board at turn %d", i)
		}
		q, err := store.GetQuestion(ctx, turn.Question.ID)
		if err != nil {
			t.Fatalf("get question: %v", err)
		}
		res, err := service.RecordAnswer(ctx, game.ID, q.ID, string(q.Correct))
		if err != nil {
			t.Fatalf("record answer: %v", err)
		}
		expected += q.Points()
		if !res.Correct || res.TotalScore != expected {
			t.Fatalf("expected correct answer with total %d, got %+v", expected, res)
		}

		dup, err := service.RecordAnswer(ctx, game.ID, q.ID, string(q.Correct))
		if err != nil {
			t.Fatalf("duplicate answer: %v", err)
		}
		if !dup.Duplicate || dup.TotalScore != expected {
			t.Fatalf("expected duplicate no-op, got %+v", dup)
		}
	}

	turn, err := service.Advance(ctx, game.ID)
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if !turn.Finished || turn.Game.FinishedAt == nil {
		t.Fatalf("expected finished game, got %+v", turn.Game)
	}

	stats, err := service.Finalize(ctx, game.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if stats.FinalScore != expected || stats.AccuracyText != "100.0%" {
		t.Fatalf("unexpected stats %+v", stats)
	}

	deleted, err := service.PurgeQuestions(ctx)
	if err != nil || deleted != 3 {
		t.Fatalf("purge: %d %v", deleted, err)
	}
	keys, err := redisClient.Keys(ctx, "trivia:question:*").Result()
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected cache cleared, got %v (%v)", keys, err)
	}
}

func TestPostgresRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	if _, err := migrations.Apply(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	q := domain.Question{
		ID:        "q1",
		Text:      "What is 2 + 2?",
		Choices:   [domain.ChoiceCount]string{"3", "4", "5", "22"},
		Correct:   domain.LabelB,
		CreatedAt: time.Now(),
	}
	if err := store.CreateQuestion(ctx, q); err != nil {
		t.Fatalf("create: %v", err)
	}
	q.ID = "q2"
	q.Text = "WHAT IS 2 + 2?"
	if err := store.CreateQuestion(ctx, q); err != domain.ErrDuplicateQuestion {
		t.Fatalf("expected duplicate question, got %v", err)
	}

	if err := store.CreateGame(ctx, domain.Game{ID: "g1", Status: domain.GameStatusActive, StartedAt: time.Now()}); err != nil {
		t.Fatalf("create game: %v", err)
	}
	answer := domain.PlayerAnswer{ID: "a1", GameID: "g1", QuestionID: "q1", Selected: domain.LabelB, Correct: true, Points: 1, CreatedAt: time.Now()}
	if err := store.CreateAnswer(ctx, answer); err != nil {
		t.Fatalf("create answer: %v", err)
	}
	answer.ID = "a2"
	if err := store.CreateAnswer(ctx, answer); err != domain.ErrAlreadyAnswered {
		t.Fatalf("expected already answered, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
