package rest

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

const bearerPrefix = "Bearer "

type APIHandler interface {
	Tally(ctx echo.Context) error
	History(ctx echo.Context) error
}

type gameReader interface {
	WinTally(ctx context.Context) (int, int)
	History(ctx context.Context, ownerID string) []entity.GameRecord
}

type tokenParser interface {
	ParseToken(token string) (string, error)
}

type apiHandler struct {
	logger *slog.Logger

	game gameReader
	auth tokenParser
}

func NewAPI(logger *slog.Logger, game gameReader, auth tokenParser) APIHandler {
	return &apiHandler{
		logger: logger.With("component", "api"),
		game:   game,
		auth:   auth,
	}
}

type tallyResponse struct {
	X int `json:"x"`
	O int `json:"o"`
}

type historyResponse struct {
	Games []entity.GameRecord `json:"games"`
}

// Tally - wins per mark. Storage failures read as zero.
func (that *apiHandler) Tally(ctx echo.Context) error {
	xWins, oWins := that.game.WinTally(ctx.Request().Context())

	return ctx.JSON(http.StatusOK, tallyResponse{X: xWins, O: oWins})
}

// History - the caller's games, newest first.
func (that *apiHandler) History(ctx echo.Context) error {
	log := that.logger.With("method", "History")

	token, ok := strings.CutPrefix(ctx.Request().Header.Get(echo.HeaderAuthorization), bearerPrefix)
	if !ok || token == "" {
		return ctx.String(http.StatusUnauthorized, "Missing bearer token")
	}

	ownerID, err := that.auth.ParseToken(token)
	if err != nil {
		log.Info("token rejected", "error", err)
		return ctx.String(http.StatusUnauthorized, "Invalid token")
	}

	games := that.game.History(ctx.Request().Context(), ownerID)

	slices.SortStableFunc(games, func(a, b entity.GameRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return ctx.JSON(http.StatusOK, historyResponse{Games: games})
}
