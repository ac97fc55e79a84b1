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

package bridge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/config"
	"stash.kopano.io/kc/kbridge/gateway"
	"stash.kopano.io/kc/kbridge/oidcclient"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/signing"
)

// Bridge default values.
const (
	DefaultURIBasePath = "/bff"

	DefaultCookieName = "__Secure-KBS"
	// DefaultSecondaryCookieName is the name of the legacy framework session
	// cookie which is expired together with the session cookie at logout.
	DefaultSecondaryCookieName = "JSESSIONID"
)

// Config defines the data required to create a new Bridge.
type Config struct {
	Config *config.Config

	Codec  *signing.Codec
	Store  session.Store
	Client *oidcclient.Client

	Dispatcher *gateway.Dispatcher

	// URIBasePath is the path prefix all bridge routes are mounted under.
	URIBasePath string

	// FrontendURI is the base URI of the frontend application which the
	// bridge redirects to after login and logout.
	FrontendURI *url.URL

	CookieName          string
	SecondaryCookieName string
	CookieSecure        bool
}

// A Bridge ties the session lifecycle together. It runs the logon and logoff
// flows against the identity provider, maintains the session cookie of the
// user agent and mounts the authenticated and public proxy path families.
type Bridge struct {
	codec  *signing.Codec
	store  session.Store
	client *oidcclient.Client

	dispatcher *gateway.Dispatcher

	uriBasePath string
	frontendURI *url.URL

	cookieName          string
	secondaryCookieName string
	cookieSecure        bool

	hardened bool

	logger logrus.FieldLogger
}

// NewBridge creates a new Bridge from the provided parameters.
func NewBridge(c *Config) (*Bridge, error) {
	if c.Codec == nil || c.Store == nil || c.Client == nil || c.Dispatcher == nil {
		return nil, fmt.Errorf("bridge: incomplete configuration")
	}
	if c.FrontendURI == nil || !c.FrontendURI.IsAbs() {
		return nil, fmt.Errorf("bridge: absolute frontend URI required")
	}

	uriBasePath := c.URIBasePath
	if uriBasePath == "" {
		uriBasePath = DefaultURIBasePath
	}
	cookieName := c.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	secondaryCookieName := c.SecondaryCookieName
	if secondaryCookieName == "" {
		secondaryCookieName = DefaultSecondaryCookieName
	}

	return &Bridge{
		codec:  c.Codec,
		store:  c.Store,
		client: c.Client,

		dispatcher: c.Dispatcher,

		uriBasePath: uriBasePath,
		frontendURI: c.FrontendURI,

		cookieName:          cookieName,
		secondaryCookieName: secondaryCookieName,
		cookieSecure:        c.CookieSecure,

		hardened: c.Config.Hardened,

		logger: c.Config.Logger,
	}, nil
}

// AddRoutes adds the associated Bridge's routes to the provided router.
func (b *Bridge) AddRoutes(ctx context.Context, router *mux.Router) {
	r := router.PathPrefix(b.uriBasePath).Subrouter()

	r.Handle("/login", http.HandlerFunc(b.LoginHandler)).Methods(http.MethodGet)
	r.Handle("/login/callback", http.HandlerFunc(b.CallbackHandler)).Methods(http.MethodGet)
	r.Handle("/logout", http.HandlerFunc(b.LogoutHandler)).Methods(http.MethodGet)
	r.Handle("/user", b.withSessionClaims(http.HandlerFunc(b.UserHandler))).Methods(http.MethodGet)

	r.PathPrefix("/api/").Handler(b.dispatcher.ForwardHandler(b.uriBasePath + "/api")).Methods(
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodPatch,
	)
	r.PathPrefix("/public/").Handler(b.dispatcher.PublicForwardHandler(b.uriBasePath + "/public")).Methods(
		http.MethodGet,
		http.MethodPost,
	)
}
