package socials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"nexura/models"
)

const discordAPI = "https://discord.com/api"

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  discordAPI + "/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// ErrNotConfigured is returned when a provider has no client credentials
var ErrNotConfigured = errors.New("social provider not configured")

// Discord handles the account link flow and guild checks
type Discord struct {
	oauth *oauth2.Config
	bot   *discordgo.Session
	api   string
}

// NewDiscord builds the OAuth client and, when botToken is set, a bot
// session used for membership lookups. The session is REST only.
func NewDiscord(clientID, clientSecret, redirectURL, botToken string) (*Discord, error) {
	d := &Discord{api: discordAPI}
	if clientID != "" {
		d.oauth = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "guilds"},
			Endpoint:     discordEndpoint,
		}
	}
	if botToken != "" {
		session, err := discordgo.New("Bot " + botToken)
		if err != nil {
			return nil, fmt.Errorf("discord session: %w", err)
		}
		session.Client = &http.Client{Timeout: httpTimeout}
		d.bot = session
	}
	return d, nil
}

func (d *Discord) AuthURL(state string) (string, error) {
	if d == nil || d.oauth == nil {
		return "", ErrNotConfigured
	}
	return d.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades the callback code for the linked Discord account
func (d *Discord) Exchange(ctx context.Context, code string) (*models.SocialAccount, error) {
	if d == nil || d.oauth == nil {
		return nil, ErrNotConfigured
	}
	ctx = withHTTPClient(ctx)
	token, err := d.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("discord token exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.api+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord user lookup: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord user lookup: status %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}
	return parseDiscordUser(body, time.Now())
}

func parseDiscordUser(body []byte, now time.Time) (*models.SocialAccount, error) {
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return nil, errors.New("discord user lookup: missing id")
	}
	return &models.SocialAccount{
		ID:          id,
		Username:    gjson.GetBytes(body, "username").String(),
		ConnectedAt: now,
	}, nil
}

// member returns the guild member or nil when the user is not in the guild
func (d *Discord) member(guildID, userID string) (*discordgo.Member, error) {
	if d == nil || d.bot == nil {
		return nil, ErrNotConfigured
	}
	m, err := d.bot.GuildMember(guildID, userID)
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("discord guild member: %w", err)
	}
	return m, nil
}

// InGuild reports whether userID is a member of guildID
func (d *Discord) InGuild(guildID, userID string) (bool, error) {
	m, err := d.member(guildID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// HasRole reports whether userID holds roleID in guildID
func (d *Discord) HasRole(guildID, roleID, userID string) (bool, error) {
	m, err := d.member(guildID, userID)
	if err != nil || m == nil {
		return false, err
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}
