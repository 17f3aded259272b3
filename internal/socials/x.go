package socials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/g8rswimmer/go-twitter/v2"
	"golang.org/x/oauth2"

	"nexura/models"
)

const (
	xAPI        = "https://api.twitter.com"
	httpTimeout = 10 * time.Second
)

var xEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  xAPI + "/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// X links X (Twitter) accounts with the OAuth2 PKCE flow
type X struct {
	oauth *oauth2.Config
	host  string
}

func NewX(clientID, clientSecret, redirectURL string) *X {
	x := &X{host: xAPI}
	if clientID != "" {
		x.oauth = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"tweet.read", "users.read"},
			Endpoint:     xEndpoint,
		}
	}
	return x
}

// AuthURL returns the consent URL and the PKCE verifier the callback must present
func (x *X) AuthURL(state string) (string, string, error) {
	if x == nil || x.oauth == nil {
		return "", "", ErrNotConfigured
	}
	verifier := oauth2.GenerateVerifier()
	return x.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), verifier, nil
}

// Exchange redeems the code and looks up the authenticated account
func (x *X) Exchange(ctx context.Context, code, verifier string) (*models.SocialAccount, error) {
	if x == nil || x.oauth == nil {
		return nil, ErrNotConfigured
	}
	if verifier == "" {
		return nil, errors.New("missing pkce verifier")
	}
	ctx = withHTTPClient(ctx)
	token, err := x.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("x token exchange: %w", err)
	}

	client := &twitter.Client{
		Authorizer: bearer(token.AccessToken),
		Client:     &http.Client{Timeout: httpTimeout},
		Host:       x.host,
	}
	resp, err := client.AuthUserLookup(ctx, twitter.UserLookupOpts{})
	if err != nil {
		return nil, fmt.Errorf("x user lookup: %w", err)
	}
	if resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil {
		return nil, errors.New("x user lookup: empty response")
	}
	u := resp.Raw.Users[0]
	return &models.SocialAccount{ID: u.ID, Username: u.UserName, ConnectedAt: time.Now()}, nil
}

type bearer string

func (b bearer) Add(req *http.Request) {
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", string(b)))
}

// withHTTPClient bounds the token exchange requests made by oauth2
func withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: httpTimeout})
}
