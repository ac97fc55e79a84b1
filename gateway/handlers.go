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
	"io"
	"net/http"
	"strings"

	"stash.kopano.io/kc/kbridge"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/utils"
)

// ForwardHandler returns a http.Handler which dispatches authenticated proxy
// requests. The provided prefix is stripped from the request path before the
// request is forwarded to the backend gateway with the session's current
// access token as bearer credential. Requests without a resolvable live
// session are rejected with status 401 and never forwarded.
func (d *Dispatcher) ForwardHandler(prefix string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		proxyRequests.WithLabelValues("api").Inc()

		cookie, err := req.Cookie(d.cookieName)
		if err != nil {
			d.writeError(rw, http.StatusUnauthorized, kbridge.ErrorIDMissingSession, "session cookie not found")
			return
		}

		claims, err := d.codec.Verify(cookie.Value)
		if err != nil {
			d.writeError(rw, http.StatusUnauthorized, kbridge.ErrorIDInvalidSession, "failed to verify session token")
			return
		}
		sessionID := claims.Id

		pair, err := d.store.Get(req.Context(), sessionID)
		if err != nil {
			if err == session.ErrNotFound {
				d.writeError(rw, http.StatusUnauthorized, kbridge.ErrorIDSessionNotFound, "session not found in store (expired or invalid)")
			} else {
				d.logger.WithError(err).WithField("session", sessionID).Errorln("session store lookup failed")
				d.writeError(rw, http.StatusBadGateway, kbridge.ErrorIDBadGateway, "session store unavailable")
			}
			return
		}

		// Best effort - a failed refresh never fails the request by itself.
		pair = d.refresher.RefreshIfNeeded(req.Context(), sessionID, pair)

		target := d.makeTargetURL(strings.TrimPrefix(req.URL.Path, prefix), req.URL.RawQuery)
		d.forward(rw, req, target, pair.AccessToken)
	})
}

// PublicForwardHandler returns a http.Handler which dispatches proxy
// requests of the public path family without requiring a session. The path
// /{prefix}/{service}/rest is rewritten to /{service}/public/rest at the
// backend gateway.
func (d *Dispatcher) PublicForwardHandler(prefix string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		proxyRequests.WithLabelValues("public").Inc()

		remainder := strings.TrimPrefix(req.URL.Path, prefix)
		remainder = strings.TrimPrefix(remainder, "/")
		service := remainder
		rest := ""
		if idx := strings.Index(remainder, "/"); idx >= 0 {
			service = remainder[:idx]
			rest = remainder[idx:]
		}
		if service == "" {
			http.NotFound(rw, req)
			return
		}

		target := d.makeTargetURL("/"+service+"/public"+rest, req.URL.RawQuery)
		d.forward(rw, req, target, "")
	})
}

// forward sends the provided request to the provided target URL and relays
// the backend's status code and body verbatim. The request body, query and
// Content-Type header pass through unchanged; when accessToken is not empty
// it is attached as bearer credential.
func (d *Dispatcher) forward(rw http.ResponseWriter, req *http.Request, target string, accessToken string) {
	proxyReq, err := http.NewRequestWithContext(req.Context(), req.Method, target, req.Body)
	if err != nil {
		d.logger.WithError(err).Errorln("failed to create proxy request")
		d.writeError(rw, http.StatusBadGateway, kbridge.ErrorIDBadGateway, err.Error())
		return
	}

	proxyReq.Header.Set("User-Agent", utils.DefaultHTTPUserAgent)
	if accessToken != "" {
		proxyReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if contentType := req.Header.Get("Content-Type"); contentType != "" {
		proxyReq.Header.Set("Content-Type", contentType)
	}

	response, err := d.client.Do(proxyReq)
	if err != nil {
		proxyFailures.Inc()
		d.logger.WithError(err).WithField("target", target).Errorln("failed to reach backend")
		d.writeError(rw, http.StatusBadGateway, kbridge.ErrorIDBadGateway, err.Error())
		return
	}
	defer response.Body.Close()

	if contentType := response.Header.Get("Content-Type"); contentType != "" {
		rw.Header().Set("Content-Type", contentType)
	}
	rw.WriteHeader(response.StatusCode)
	if _, err := io.Copy(rw, response.Body); err != nil {
		d.logger.WithError(err).Debugln("failed to relay backend response body")
	}
}

func (d *Dispatcher) writeError(rw http.ResponseWriter, code int, errorID string, message string) {
	if err := kbridge.WriteErrorResponse(rw, code, errorID, message, d.hardened); err != nil {
		d.logger.WithError(err).Errorln("failed to write error response")
	}
}
