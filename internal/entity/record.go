package entity

import "time"

const GamesCollection = "games"

// Document field names used in equality filters.
const (
	FieldWinner  = "winner"
	FieldOwnerID = "owner_id"
)

// GameRecord - one finished game. Created once, never updated.
type GameRecord struct {
	ID        string    `json:"id,omitempty"`
	Board     Board     `json:"squares"`
	Winner    Mark      `json:"winner,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (that *GameRecord) IsDraw() bool {
	return that.Winner == MarkEmpty
}
