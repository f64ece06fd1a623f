package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/logging"
)

type noGenerator struct{}

func (noGenerator) Generate(context.Context, string) (domain.GeneratedQuestion, error) {
	return domain.GeneratedQuestion{}, fmt.Errorf("offline")
}

func newTestServer(t *testing.T, questions int) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	for i := 0; i < questions; i++ {
		err := store.CreateQuestion(context.Background(), domain.Question{
			ID:         fmt.Sprintf("q%d", i+1),
			Text:       fmt.Sprintf("Question %d?", i+1),
			Choices:    [domain.ChoiceCount]string{"a", "b", "c", "d"},
			Correct:    domain.LabelA,
			Difficulty: 1,
		})
		require.NoError(t, err)
	}
	logger := logging.Discard()
	replenisher := app.NewReplenisher(store, noGenerator{}, nil, nil, logger)
	service := app.NewGameService(store, app.NewSelector(store, store), replenisher, app.FlatPolicy{}, app.PoolSettings{
		MinQuestions: 1,
		MaxAttempts:  1,
	}, logger)

	server := httptest.NewServer(NewHandler(service, logger).Routes())
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func startGame(t *testing.T, base string) domain.Game {
	t.Helper()
	var game domain.Game
	status := doJSON(t, http.MethodPost, base+"/games", map[string]any{"playerName": "Alice"}, &game)
	require.Equal(t, http.StatusCreated, status)
	return game
}

func TestHomeReportsPool(t *testing.T) {
	server, _ := newTestServer(t, 2)

	var home homeResponse
	status := doJSON(t, http.MethodGet, server.URL+"/", nil, &home)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, home.QuestionCount)
	assert.Equal(t, app.PolicyFlat, home.ScoringPolicy)
}

func TestGameFlowOverHTTP(t *testing.T) {
	server, _ := newTestServer(t, 1)
	game := startGame(t, server.URL)
	assert.Equal(t, domain.GameStatusActive, game.Status)

	var turn domain.Turn
	status := doJSON(t, http.MethodGet, server.URL+"/games/"+game.ID+"/question", nil, &turn)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, turn.Question)

	var raw map[string]any
	doJSON(t, http.MethodGet, server.URL+"/games/"+game.ID+"/question", nil, &raw)
	question := raw["question"].(map[string]any)
	_, leaked := question["correct"]
	assert.False(t, leaked, "public question must not carry the answer")

	var result domain.AnswerResult
	status = doJSON(t, http.MethodPost, server.URL+"/games/"+game.ID+"/answers",
		answerRequest{QuestionID: turn.Question.ID, Choice: "a"}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.Correct)
	assert.Equal(t, 1, result.TotalScore)

	status = doJSON(t, http.MethodPost, server.URL+"/games/"+game.ID+"/answers",
		answerRequest{QuestionID: turn.Question.ID, Choice: "b"}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.Duplicate)
	assert.Equal(t, 1, result.TotalScore)

	status = doJSON(t, http.MethodGet, server.URL+"/games/"+game.ID+"/question", nil, &turn)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, turn.Finished)
	assert.Equal(t, domain.GameStatusFinished, turn.Game.Status)

	var stats domain.FinalStats
	status = doJSON(t, http.MethodGet, server.URL+"/games/"+game.ID+"/score", nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, stats.FinalScore)
	assert.Equal(t, "100.0%", stats.AccuracyText)

	var board domain.Board
	status = doJSON(t, http.MethodGet, server.URL+"/games/"+game.ID+"/board", nil, &board)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, board.Columns, 1)
	assert.True(t, board.Columns[0].Cells[0].Answered)
}

func TestErrorStatuses(t *testing.T) {
	server, store := newTestServer(t, 2)
	game := startGame(t, server.URL)

	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, server.URL+"/games/missing", nil, &errResp))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, server.URL+"/games/"+game.ID+"/answers",
		answerRequest{QuestionID: "q1", Choice: "Z"}, &errResp))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, server.URL+"/games/"+game.ID+"/answers",
		map[string]any{"choice": "A"}, &errResp))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, server.URL+"/games/"+game.ID+"/answers",
		answerRequest{QuestionID: "nope", Choice: "A"}, &errResp))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, server.URL+"/games",
		map[string]any{"difficulty": 9}, &errResp))

	_, err := store.FinishGame(context.Background(), game.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, server.URL+"/games/"+game.ID+"/answers",
		answerRequest{QuestionID: "q1", Choice: "A"}, &errResp))
}

func TestMalformedBody(t *testing.T) {
	server, _ := newTestServer(t, 1)
	resp, err := http.Post(server.URL+"/games", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminEndpoints(t *testing.T) {
	server, _ := newTestServer(t, 3)

	var replenished replenishResponse
	status := doJSON(t, http.MethodPost, server.URL+"/admin/replenish", app.PoolRequest{MinCount: 2}, &replenished)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, replenished.QuestionCount)

	var purged purgeResponse
	status = doJSON(t, http.MethodDelete, server.URL+"/admin/questions", nil, &purged)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, purged.Deleted)
}

func TestWebSocketPlayFlow(t *testing.T) {
	server, _ := newTestServer(t, 1)
	game := startGame(t, server.URL)

	u := "ws" + server.URL[len("http"):] + "/ws?gameId=" + game.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	typ, _ := readNext(t, conn)
	require.Equal(t, "joined", typ)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "next"}))
	typ, payload := readNext(t, conn)
	require.Equal(t, "question", typ)
	questionID, _ := payload["id"].(string)
	require.NotEmpty(t, questionID)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": questionID, "choice": "A"},
	}))

	answerSeen, updateSeen := false, false
	for i := 0; i < 2; i++ {
		typ, payload := readNext(t, conn)
		switch typ {
		case "answerResult":
			answerSeen = true
			assert.Equal(t, true, payload["correct"])
		case "scoreUpdate":
			updateSeen = true
			assert.Equal(t, float64(1), payload["score"])
		}
	}
	assert.True(t, answerSeen, "expected answerResult")
	assert.True(t, updateSeen, "expected scoreUpdate")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "next"}))
	for {
		typ, _ := readNext(t, conn)
		if typ == "scoreUpdate" {
			continue
		}
		require.Equal(t, "finished", typ)
		break
	}
}

func TestWebSocketRejectsUnknownGame(t *testing.T) {
	server, _ := newTestServer(t, 1)

	u := "ws" + server.URL[len("http"):] + "/ws?gameId=missing"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func readNext(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type, msg.Payload
}
