package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/tictactoe"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectRequest struct {
	Token string `json:"token,omitempty"`
}

type TurnRequest struct {
	Cell *int `json:"cell"`
}

type PreviewRequest struct {
	RecordID string `json:"record_id"`
}

// Snapshot - what a client needs to draw the board.
type Snapshot struct {
	ID       string       `json:"id"`
	Board    entity.Board `json:"board"`
	NextTurn entity.Mark  `json:"next_turn,omitempty"`
	Status   string       `json:"status"`
	Winner   entity.Mark  `json:"winner,omitempty"`
	ReadOnly bool         `json:"read_only"`
	Recorded bool         `json:"recorded"`
}

type Tally struct {
	X int `json:"x"`
	O int `json:"o"`
}

type ResponsePayload struct {
	Game  *Snapshot `json:"game,omitempty"`
	Tally *Tally    `json:"tally,omitempty"`
	Error string    `json:"error,omitempty"`
}

func newSnapshot(session *tictactoe.Session) *Snapshot {
	outcome := session.Outcome()

	return &Snapshot{
		ID:       session.ID,
		Board:    session.Board,
		NextTurn: session.NextMark(),
		Status:   outcome.Status,
		Winner:   outcome.Winner,
		ReadOnly: session.ReadOnly,
		Recorded: session.Recorded,
	}
}

// client - one connection and the game it plays. Only its read loop touches it.
type client struct {
	conn    *websocket.Conn
	session *tictactoe.Session
	limiter *rate.Limiter
}

func (that *client) send(action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
