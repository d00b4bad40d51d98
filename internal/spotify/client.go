// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewWithCredentials creates a client authenticated with the client
// credentials flow. It can read catalog data but not act for a user.
func NewWithCredentials(ctx context.Context, clientID, clientSecret string, opts ...spotify.ClientOption) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting client credentials token: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	opts = append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...)
	return New(spotify.New(httpClient, opts...)), nil
}

// NewWithToken creates a client acting for the user that owns accessToken.
func NewWithToken(ctx context.Context, accessToken string, opts ...spotify.ClientOption) *Client {
	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	return New(spotify.New(httpClient, opts...))
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}
