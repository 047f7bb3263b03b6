package sentinelhub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	sferrors "sentinelfetch/pkg/errors"
	"sentinelfetch/pkg/logger"
	"sentinelfetch/pkg/metrics"
)

// AccessToken is a bearer token for the Process API. Expiry is advisory
// and zero when the server did not send expires_in.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// TokenProvider exchanges OAuth client credentials for an access token
type TokenProvider struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewTokenProvider creates a provider for the token endpoint at tokenURL.
// The credentials are sent as form parameters.
func NewTokenProvider(tokenURL, clientID, clientSecret string, httpClient *http.Client, log logger.Logger) *TokenProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &TokenProvider{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: requireOK(httpClient),
		logger:     log.WithField("component", "token"),
	}
}

// Token performs one token request. Any failure is a *errors.AuthError.
func (p *TokenProvider) Token(ctx context.Context) (AccessToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	start := time.Now()
	tok, err := p.config.Token(ctx)
	if err != nil {
		metrics.RecordTokenRequest(false)
		authErr := toAuthError(err)
		p.logger.WithError(err).ErrorWithFields("Token request failed", map[string]interface{}{
			"status_code": authErr.StatusCode,
			"duration":    time.Since(start),
		})
		return AccessToken{}, authErr
	}

	metrics.RecordTokenRequest(true)
	p.logger.DebugWithFields("Token acquired", map[string]interface{}{
		"expiry":   tok.Expiry,
		"duration": time.Since(start),
	})

	return AccessToken{Value: tok.AccessToken, Expiry: tok.Expiry}, nil
}

func toAuthError(err error) *sferrors.AuthError {
	var statusErr *tokenStatusError
	if errors.As(err, &statusErr) {
		return &sferrors.AuthError{
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
			Err:        err,
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return &sferrors.AuthError{
			StatusCode: retrieveErr.Response.StatusCode,
			Body:       string(retrieveErr.Body),
			Err:        err,
		}
	}
	return &sferrors.AuthError{Err: err}
}

// tokenStatusError reports a 2xx token response other than 200, which
// oauth2 would otherwise accept.
type tokenStatusError struct {
	StatusCode int
	Body       string
}

func (e *tokenStatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
}

// okOnlyTransport fails every response whose status is not 200
type okOnlyTransport struct {
	base http.RoundTripper
}

func (t *okOnlyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode == http.StatusOK {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// oauth2 turns these into a RetrieveError with the body
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return nil, &tokenStatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// requireOK returns a copy of c whose transport rejects non-200 successes
func requireOK(c *http.Client) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *c
	clone.Transport = &okOnlyTransport{base: base}
	return &clone
}
