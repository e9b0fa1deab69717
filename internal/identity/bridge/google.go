// Package bridge exchanges a third-party OAuth assertion for a local
// identity, provisioning one on first sight. Provisioned accounts get the
// unusable sentinel password hash and can only authenticate through the
// bridge.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"taskvault/backend/internal/user/domain"
)

// Bridge failure kinds; handlers map them to HTTP statuses.
var (
	// ErrNoEmail is returned when the provider's assertion lacks an email.
	ErrNoEmail = errors.New("email not provided by identity provider")
	// ErrUpstream wraps any failure during the exchange with the provider.
	// The upstream detail is opaque to callers.
	ErrUpstream = errors.New("identity provider exchange failed")
)

const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Assertion is a verified external identity claim: the provider vouches that
// the caller controls Email.
type Assertion struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// UserProvisioner finds or creates local users for the bridge.
type UserProvisioner interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateExternal(ctx context.Context, email, username string) (*domain.User, error)
}

// GoogleBridge drives the Google OAuth authorization-code flow and resolves
// the resulting assertion to a local user.
type GoogleBridge struct {
	conf        *oauth2.Config
	users       UserProvisioner
	userinfoURL string
}

// NewGoogleBridge returns a bridge configured with the given OAuth client
// credentials and redirect URI.
func NewGoogleBridge(clientID, clientSecret, redirectURI string, users UserProvisioner) *GoogleBridge {
	return &GoogleBridge{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		users:       users,
		userinfoURL: googleUserinfoURL,
	}
}

// AuthCodeURL returns the provider URL to redirect the user to, bound to the
// given anti-forgery state.
func (b *GoogleBridge) AuthCodeURL(state string) string {
	return b.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// ExchangeCode trades the callback authorization code for the provider's
// identity assertion. Provider failures are wrapped in ErrUpstream; an
// assertion without an email is ErrNoEmail.
func (b *GoogleBridge) ExchangeCode(ctx context.Context, code string) (*Assertion, error) {
	tok, err := b.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := b.conf.Client(ctx, tok).Get(b.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", ErrUpstream, resp.StatusCode)
	}
	var a Assertion
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if a.Email == "" {
		return nil, ErrNoEmail
	}
	return &a, nil
}

// Resolve maps the assertion to a local user, provisioning one with a
// synthesized username and the unusable sentinel password hash when absent.
func (b *GoogleBridge) Resolve(ctx context.Context, a *Assertion) (*domain.User, error) {
	if a == nil || a.Email == "" {
		return nil, ErrNoEmail
	}
	u, err := b.users.GetByEmail(ctx, a.Email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return b.users.CreateExternal(ctx, a.Email, a.DisplayName)
}
