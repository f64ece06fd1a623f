package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"trivia-quiz-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleQuestion(id, text string, difficulty int) domain.Question {
	return domain.Question{
		ID:         id,
		Text:       text,
		Choices:    [domain.ChoiceCount]string{"Venus", "Mars", "Jupiter", "Saturn"},
		Correct:    domain.LabelB,
		Difficulty: difficulty,
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestStoreQuestionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cat, err := store.EnsureCategory(ctx, "Science", "natural world")
	if err != nil {
		t.Fatalf("ensure category: %v", err)
	}
	q := sampleQuestion("q1", "Which planet is red?", 2)
	q.CategoryID = cat.ID
	if err := store.CreateQuestion(ctx, q); err != nil {
		t.Fatalf("create question: %v", err)
	}

	got, err := store.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if got.Text != q.Text || got.Choices != q.Choices || got.Correct != q.Correct || got.CategoryID != cat.ID {
		t.Fatalf("unexpected question %+v", got)
	}
	if !got.CreatedAt.Equal(q.CreatedAt) {
		t.Fatalf("unexpected created at %v", got.CreatedAt)
	}

	if _, err := store.GetQuestion(ctx, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreRejectsDuplicateTextIgnoringCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateQuestion(ctx, sampleQuestion("q1", "Which planet is red?", 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.CreateQuestion(ctx, sampleQuestion("q2", "WHICH PLANET IS RED?", 1))
	if !errors.Is(err, domain.ErrDuplicateQuestion) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	exists, err := store.QuestionTextExists(ctx, "which planet is RED?")
	if err != nil || !exists {
		t.Fatalf("expected text to exist, got %v %v", exists, err)
	}
}

func TestStoreFoldsNonASCIITextCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateQuestion(ctx, sampleQuestion("q1", "Where does the Ñandú live?", 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.CreateQuestion(ctx, sampleQuestion("q2", " where does the ñandú live? ", 1))
	if !errors.Is(err, domain.ErrDuplicateQuestion) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	exists, err := store.QuestionTextExists(ctx, "WHERE DOES THE ÑANDÚ LIVE?")
	if err != nil || !exists {
		t.Fatalf("expected text to exist, got %v %v", exists, err)
	}
}

func TestStoreListFiltersByDifficulty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.CreateQuestion(ctx, sampleQuestion("q1", "one", 1))
	_ = store.CreateQuestion(ctx, sampleQuestion("q2", "two", 3))

	ids, err := store.ListQuestionIDs(ctx, 3)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "q2" {
		t.Fatalf("unexpected ids %v", ids)
	}
	all, err := store.ListQuestions(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 questions, got %d (%v)", len(all), err)
	}
	if n, _ := store.CountQuestions(ctx); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
}

func TestStoreGameLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	started := time.Unix(1700000000, 0).UTC()

	game := domain.Game{ID: "g1", PlayerName: "Alice", Status: domain.GameStatusActive, StartedAt: started}
	if err := store.CreateGame(ctx, game); err != nil {
		t.Fatalf("create game: %v", err)
	}
	score, err := store.AddScore(ctx, "g1", -400)
	if err != nil || score != -400 {
		t.Fatalf("add score: %d %v", score, err)
	}
	if _, err := store.AddScore(ctx, "missing", 1); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	finishedAt := started.Add(time.Hour)
	got, err := store.FinishGame(ctx, "g1", finishedAt)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !got.Finished() || got.FinishedAt == nil || !got.FinishedAt.Equal(finishedAt) {
		t.Fatalf("unexpected game %+v", got)
	}
	got, _ = store.FinishGame(ctx, "g1", finishedAt.Add(time.Hour))
	if !got.FinishedAt.Equal(finishedAt) {
		t.Fatalf("expected first stamp kept, got %v", got.FinishedAt)
	}
	if _, err := store.FinishGame(ctx, "missing", finishedAt); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreAnswersAreUniqueAndCascade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.CreateQuestion(ctx, sampleQuestion("q1", "one", 1))
	_ = store.CreateGame(ctx, domain.Game{ID: "g1", Status: domain.GameStatusActive, StartedAt: time.Now()})

	answer := domain.PlayerAnswer{ID: "a1", GameID: "g1", QuestionID: "q1", Selected: domain.LabelB, Correct: true, Points: 1, CreatedAt: time.Now()}
	if err := store.CreateAnswer(ctx, answer); err != nil {
		t.Fatalf("create answer: %v", err)
	}
	answer.ID = "a2"
	if err := store.CreateAnswer(ctx, answer); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	answers, err := store.ListAnswers(ctx, "g1")
	if err != nil || len(answers) != 1 || !answers[0].Correct || answers[0].Selected != domain.LabelB {
		t.Fatalf("unexpected answers %+v (%v)", answers, err)
	}
	if ok, _ := store.HasAnswer(ctx, "g1", "q1"); !ok {
		t.Fatalf("expected answer present")
	}

	n, err := store.DeleteAllQuestions(ctx)
	if err != nil || n != 1 {
		t.Fatalf("delete all: %d %v", n, err)
	}
	if ok, _ := store.HasAnswer(ctx, "g1", "q1"); ok {
		t.Fatalf("expected answers removed with their question")
	}
}

func TestStoreEnsureCategoryIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.EnsureCategory(ctx, "History", "")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b, err := store.EnsureCategory(ctx, "history", "")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected one category, got %s and %s", a.ID, b.ID)
	}
}
