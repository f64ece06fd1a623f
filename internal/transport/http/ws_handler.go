package http

import (
	"encoding/json"
	"net/http"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Choice     string `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one game over the connection.
// Clients send "next", "answer" and "score"; the server replies with
// "question", "finished", "answerResult", "score" and pushes "scoreUpdate"
// whenever the game's score changes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing gameId")
		return
	}
	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), gameID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "game", gameID, "err", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "scoreUpdate", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: game}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		send <- h.handleMessage(r, gameID, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *Handler) handleMessage(r *http.Request, gameID string, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()
	switch inbound.Type {
	case "next":
		turn, err := h.service.Advance(ctx, gameID)
		if err != nil {
			return errorMessage(err)
		}
		if turn.Finished {
			stats, err := h.service.Finalize(ctx, gameID)
			if err != nil {
				return errorMessage(err)
			}
			return outboundMessage[any]{Type: "finished", Payload: scoreMessage{Game: turn.Game, Stats: stats}}
		}
		return outboundMessage[any]{Type: "question", Payload: turn.Question}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
		}
		result, err := h.service.RecordAnswer(ctx, gameID, payload.QuestionID, payload.Choice)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: result}
	case "score":
		game, err := h.service.GetGame(ctx, gameID)
		if err != nil {
			return errorMessage(err)
		}
		stats, err := h.service.Finalize(ctx, gameID)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "score", Payload: scoreMessage{Game: game, Stats: stats}}
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

