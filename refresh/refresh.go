/*
 * Copyright 2019 Kopano and its licensors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License, version 3,
 * as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/config"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/utils"
)

// Config defines the data required to create a new Engine.
type Config struct {
	Config *config.Config

	Store            session.Store
	TokenEndpointURI *url.URL

	ClientID     string
	ClientSecret string

	// Buffer is the minimum remaining access token lifetime below which a
	// proactive refresh is attempted before dispatching a proxied request.
	Buffer time.Duration

	HTTPClient *http.Client
}

// An Engine keeps the access tokens stored for a session from expiring while
// a proxied request is in flight at a backend service. It refreshes token
// pairs against the identity provider's token endpoint when their remaining
// lifetime falls below the configured buffer. An Engine is safe to use from
// multiple Go routines; concurrent refreshes for the same session are not
// coordinated, the last write to the session store wins.
type Engine struct {
	store            session.Store
	tokenEndpointURI *url.URL

	clientID     string
	clientSecret string

	buffer time.Duration

	client *http.Client
	logger logrus.FieldLogger
}

// NewEngine creates a new Engine from the provided parameters.
func NewEngine(c *Config) (*Engine, error) {
	if c.TokenEndpointURI == nil {
		return nil, fmt.Errorf("refresh: token endpoint URI required")
	}

	client := c.HTTPClient
	if client == nil {
		client = utils.DefaultHTTPClient
	}

	return &Engine{
		store:            c.Store,
		tokenEndpointURI: c.TokenEndpointURI,

		clientID:     c.ClientID,
		clientSecret: c.ClientSecret,

		buffer: c.Buffer,

		client: client,
		logger: c.Config.Logger,
	}, nil
}

// RefreshIfNeeded refreshes the provided token pair when it has a refresh
// token and its access token's remaining lifetime is below the associated
// Engine's buffer. It returns the refreshed pair after writing it to the
// session store. Refreshing is best effort - on any failure the stored pair
// stays untouched, the failure is logged and the provided pair is returned
// as is so the request pipeline continues with the possibly stale access
// token. The downstream service's own 401 is the fallback failure signal.
func (e *Engine) RefreshIfNeeded(ctx context.Context, sessionID string, pair *session.TokenPair) *session.TokenPair {
	if pair.RefreshToken == "" {
		return pair
	}

	remaining := time.Until(pair.AccessTokenExpiry)
	if remaining >= e.buffer {
		return pair
	}

	refreshed, err := e.refresh(ctx, sessionID, pair)
	if err != nil {
		refreshFailures.Inc()
		e.logger.WithError(utils.DescribeError(err)).WithFields(logrus.Fields{
			"session":   sessionID,
			"remaining": remaining,
		}).Errorln("proactive token refresh failed")
		return pair
	}

	refreshSuccesses.Inc()
	e.logger.WithField("session", sessionID).Debugln("proactively refreshed session tokens")

	return refreshed
}

func (e *Engine) refresh(ctx context.Context, sessionID string, pair *session.TokenPair) (*session.TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", pair.RefreshToken)
	form.Set("client_id", e.clientID)
	form.Set("client_secret", e.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenEndpointURI.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", utils.DefaultHTTPUserAgent)

	response, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		tokenError := &TokenEndpointError{Code: "request_failed", Status: response.StatusCode}
		// Try to get the detail from the response, ignore when not JSON.
		json.NewDecoder(response.Body).Decode(tokenError)
		return nil, tokenError
	}

	var tokenResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(response.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %v", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("token response without access token")
	}

	refreshToken := tokenResponse.RefreshToken
	if refreshToken == "" {
		// Issuers are not required to rotate refresh tokens on every call,
		// keep the previous one when the response has none.
		refreshToken = pair.RefreshToken
	}

	refreshed := &session.TokenPair{
		AccessToken:       tokenResponse.AccessToken,
		AccessTokenExpiry: time.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second),
		RefreshToken:      refreshToken,

		Scopes:         pair.Scopes,
		RegistrationID: pair.RegistrationID,
	}

	if err := e.store.Put(ctx, sessionID, refreshed); err != nil {
		return nil, fmt.Errorf("failed to store refreshed tokens: %v", err)
	}

	return refreshed, nil
}
