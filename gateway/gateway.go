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

package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/config"
	"stash.kopano.io/kc/kbridge/refresh"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/signing"
	"stash.kopano.io/kc/kbridge/utils"
)

// Config defines the data required to create a new Dispatcher.
type Config struct {
	Config *config.Config

	Codec     *signing.Codec
	Store     session.Store
	Refresher *refresh.Engine

	// GatewayURI is the base URI of the backend gateway all proxied
	// requests are forwarded to.
	GatewayURI *url.URL

	CookieName string

	HTTPClient *http.Client
}

// A Dispatcher forwards incoming proxy requests to the backend gateway. For
// authenticated requests it resolves the session artifact from the request's
// cookies into the session's current access token, triggers a best effort
// proactive refresh and injects the access token as bearer credential into
// the forwarded request. Responses of the backend are relayed verbatim.
type Dispatcher struct {
	codec     *signing.Codec
	store     session.Store
	refresher *refresh.Engine

	gatewayURI *url.URL
	cookieName string

	hardened bool

	client *http.Client
	logger logrus.FieldLogger
}

// NewDispatcher creates a new Dispatcher from the provided parameters.
func NewDispatcher(c *Config) (*Dispatcher, error) {
	if c.GatewayURI == nil || !c.GatewayURI.IsAbs() {
		return nil, fmt.Errorf("gateway: absolute gateway URI required")
	}

	client := c.HTTPClient
	if client == nil {
		client = utils.DefaultHTTPClient
	}

	return &Dispatcher{
		codec:     c.Codec,
		store:     c.Store,
		refresher: c.Refresher,

		gatewayURI: c.GatewayURI,
		cookieName: c.CookieName,

		hardened: c.Config.Hardened,

		client: client,
		logger: c.Config.Logger,
	}, nil
}

// makeTargetURL joins the provided path and raw query with the associated
// Dispatcher's gateway base URI. Path and query are taken verbatim.
func (d *Dispatcher) makeTargetURL(path string, rawQuery string) string {
	target := strings.TrimRight(d.gatewayURI.String(), "/") + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	return target
}
