package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
)

// noCell is out of range, so a turn without a cell is rejected like any invalid click.
const noCell = -1

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}

// handleConnect - binds the connection to a player. A missing or bad token means an anonymous player.
func (that *Server) handleConnect(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq ConnectRequest
	if err := decodePayload(msg, &payloadReq); err != nil {
		log.Warn("bad connect payload", "error", err)
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	var ownerID string
	if payloadReq.Token != "" {
		userID, err := that.auth.ParseToken(payloadReq.Token)
		if err != nil {
			log.Info("token rejected, playing anonymously", "error", err)
		} else {
			ownerID = userID
		}
	}

	client.session = that.game.NewSession(ownerID)

	xWins, oWins := that.game.WinTally(ctx)

	log.Info("successfully connected player", "session", client.session.ID, "signed_in", ownerID != "")

	return client.send(msg.Action, ResponsePayload{
		Game:  newSnapshot(client.session),
		Tally: &Tally{X: xWins, O: oWins},
	})
}

func (that *Server) handleNewGame(_ context.Context, client *client, msg *Message) error {
	client.session = that.game.NewSession(client.session.OwnerID)

	return client.send(msg.Action, ResponsePayload{Game: newSnapshot(client.session)})
}

func (that *Server) handleResetGame(_ context.Context, client *client, msg *Message) error {
	that.game.ResetGame(client.session)

	return client.send(msg.Action, ResponsePayload{Game: newSnapshot(client.session)})
}

// handleGameTurn - applies a click. Rejected and throttled clicks are answered with the unchanged board.
func (that *Server) handleGameTurn(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleGameTurn", "session", client.session.ID)

	if !client.limiter.Allow() {
		log.Debug("turn throttled")
		return client.send(msg.Action, ResponsePayload{Game: newSnapshot(client.session)})
	}

	payloadReq := TurnRequest{}
	if err := decodePayload(msg, &payloadReq); err != nil {
		log.Debug("bad turn payload", "error", err)
	}

	cell := noCell
	if payloadReq.Cell != nil {
		cell = *payloadReq.Cell
	}

	outcome, err := that.game.MakeTurn(ctx, client.session, cell)
	switch {
	case errors.Is(err, apperror.ErrInvalidMove):
		log.Debug("move ignored", "cell", cell, "error", err)
	case err != nil:
		return err
	case outcome.IsTerminal():
		log.Info("game finished", "status", outcome.Status, "winner", outcome.Winner)
	}

	return client.send(msg.Action, ResponsePayload{Game: newSnapshot(client.session)})
}

func (that *Server) handlePreview(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handlePreview", "session", client.session.ID)

	var payloadReq PreviewRequest
	if err := decodePayload(msg, &payloadReq); err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	if err := that.game.PreviewGame(ctx, client.session, payloadReq.RecordID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Info("record not found", "record", payloadReq.RecordID)
			return that.sendErrorResponse(client, msg.Action, "record not found")
		}
		return err
	}

	return client.send(msg.Action, ResponsePayload{Game: newSnapshot(client.session)})
}

func (that *Server) handleTally(ctx context.Context, client *client, msg *Message) error {
	xWins, oWins := that.game.WinTally(ctx)

	return client.send(msg.Action, ResponsePayload{Tally: &Tally{X: xWins, O: oWins}})
}
