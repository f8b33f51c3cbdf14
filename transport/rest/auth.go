package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

const (
	sessionName     = "session"
	sessionStateKey = "state"
	stateMaxAge     = 600
)

type AuthHandler interface {
	GoogleLogin(ctx echo.Context) error
	GoogleCallback(ctx echo.Context) error
}

type identityProvider interface {
	AuthCodeURL(state string) string
	SignIn(ctx context.Context, code string) (*entity.User, error)
}

type tokenIssuer interface {
	GenerateToken(user *entity.User) (string, error)
}

type userUseCase interface {
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}

type authHandler struct {
	logger *slog.Logger

	identity identityProvider
	auth     tokenIssuer
	user     userUseCase
}

func NewAuth(logger *slog.Logger, identity identityProvider, auth tokenIssuer, user userUseCase) AuthHandler {
	return &authHandler{
		logger:   logger.With("component", "auth"),
		identity: identity,
		auth:     auth,
		user:     user,
	}
}

// GoogleLogin - remembers a fresh state in the cookie session and redirects to the consent screen.
func (that *authHandler) GoogleLogin(ctx echo.Context) error {
	log := that.logger.With("method", "GoogleLogin")

	userSession, err := session.Get(sessionName, ctx)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	state := uuid.NewString()

	userSession.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
	}
	userSession.Values[sessionStateKey] = state

	if err = userSession.Save(ctx.Request(), ctx.Response()); err != nil {
		log.Error("failed to save session", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.Redirect(http.StatusTemporaryRedirect, that.identity.AuthCodeURL(state))
}

func (that *authHandler) GoogleCallback(ctx echo.Context) error {
	log := that.logger.With("method", "GoogleCallback")

	// get state from session.
	userSession, err := session.Get(sessionName, ctx)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	storedState, ok := userSession.Values[sessionStateKey].(string)
	if !ok || storedState == "" {
		log.Warn("state not found in session")
		return ctx.String(http.StatusBadRequest, "Invalid session state")
	}

	if state := ctx.QueryParam("state"); state != storedState {
		log.Warn("invalid OAuth state", "expected", storedState, "got", state)
		return ctx.String(http.StatusBadRequest, "Invalid OAuth state")
	}

	// forget the state.
	delete(userSession.Values, sessionStateKey)
	if err = userSession.Save(ctx.Request(), ctx.Response()); err != nil {
		log.Error("failed to save session", "error", err)
	}

	code := ctx.QueryParam("code")
	if ctx.QueryParam("error") != "" {
		code = ""
	}

	userInfo, err := that.identity.SignIn(ctx.Request().Context(), code)
	if errors.Is(err, apperror.ErrAuthCancelled) {
		log.Info("sign-in cancelled")
		return ctx.String(http.StatusUnauthorized, "Sign-in cancelled")
	}
	if err != nil {
		log.Error("failed to sign in", "error", err)
		return ctx.String(http.StatusBadGateway, "Sign-in failed")
	}

	user, err := that.user.Update(ctx.Request().Context(), userInfo)
	if err != nil {
		log.Error("failed to create or update user", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	jwtToken, err := that.auth.GenerateToken(user)
	if err != nil {
		log.Error("failed to generate JWT token", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, signInResponse{
		Token: jwtToken,
		User:  user,
	})
}

type signInResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}
