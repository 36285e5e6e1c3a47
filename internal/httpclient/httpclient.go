package httpclient

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewBearerClient returns a client that sends "Authorization: Bearer <token>" on
// every request. An empty token yields a plain client.
func NewBearerClient(token string) *http.Client {
	if token == "" {
		return &http.Client{}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return oauth2.NewClient(context.Background(), src)
}
