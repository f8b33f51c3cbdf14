package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrUserInfo      = errors.New("failed to get user info")
	errMissingUserID = errors.New("user info has no id")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint and UserInfoURL are overridable for tests.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// GoogleProvider - signs users in with Google OAuth 2.0.
type GoogleProvider struct {
	oauthConfig *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(conf GoogleConfig) *GoogleProvider {
	endpoint := conf.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	userInfoURL := conf.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}

	scopes := conf.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	return &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// AuthCodeURL - where to send the browser to start signing in.
func (that *GoogleProvider) AuthCodeURL(state string) string {
	return that.oauthConfig.AuthCodeURL(state)
}

// SignIn - exchanges the callback code for the signed-in user.
// An empty code means the user backed out of the consent screen.
func (that *GoogleProvider) SignIn(ctx context.Context, code string) (*entity.User, error) {
	if code == "" {
		return nil, apperror.ErrAuthCancelled
	}

	token, err := that.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	client := that.oauthConfig.Client(ctx, token)

	user, err := that.getUserInfo(ctx, client)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (that *GoogleProvider) getUserInfo(ctx context.Context, client *http.Client) (*entity.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, that.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var userInfo entity.User
	if err = json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}

	if userInfo.ID == "" {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, errMissingUserID)
	}

	return &userInfo, nil
}
