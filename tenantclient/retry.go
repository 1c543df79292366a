package tenantclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"golang.org/x/oauth2"
)

type retryKey struct{}

// markRetry flags ctx as carrying a request that has already been replayed
// after a refresh. A 401 under a marked context is final.
func markRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

func isRetry(ctx context.Context) bool {
	retry, _ := ctx.Value(retryKey{}).(bool)
	return retry
}

func (c *Client) refreshAndRetry(ctx context.Context, call *call, unauthorized *Response) (*Response, error) {
	ctx = markRetry(ctx)
	log := c.logger.With().Str("request_id", call.requestID).Str("method", call.method).Str("url", call.url).Logger()
	log.Debug().Msg("access token rejected, refreshing")

	tok, err := c.refreshAccessToken(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("refresh did not succeed, keeping the original 401")
		return nil, &Error{
			Kind:    KindAuth,
			Status:  http.StatusUnauthorized,
			Method:  call.method,
			URL:     call.url,
			Payload: payload(unauthorized.Body),
			Err:     err,
		}
	}

	log.Debug().Time("expiry", tok.Expiry).Msg("access token refreshed, replaying request")
	c.metrics.observeRetry()
	return c.execute(ctx, call, tok.AccessToken)
}

// refreshAccessToken reads the refresh token from the store at the moment of
// failure, exchanges it and persists the result. Concurrent callers each run
// their own refresh; the store keeps whichever write lands last.
func (c *Client) refreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	current, err := c.store.Load(ctx)
	if err != nil || current.RefreshToken == "" {
		c.metrics.observeRefresh(false)
		return nil, &RefreshError{Err: errors.ErrNoRefreshToken}
	}

	tok, err := c.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		c.metrics.observeRefresh(false)
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = current.RefreshToken
	}

	if err := c.store.Save(ctx, tok); err != nil {
		c.metrics.observeRefresh(false)
		return nil, &RefreshError{Err: errors.Wrapf(err, "persisting refreshed token")}
	}
	c.metrics.observeRefresh(true)
	return tok, nil
}
