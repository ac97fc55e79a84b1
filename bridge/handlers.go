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
	"net/http"

	"github.com/sirupsen/logrus"
	"stash.kopano.io/kgol/rndm"

	"stash.kopano.io/kc/kbridge"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/utils"
)

// endSessionRequest holds the query parameters of a redirect to the identity
// provider's end session endpoint.
type endSessionRequest struct {
	IDTokenHint           string `url:"id_token_hint"`
	PostLogoutRedirectURI string `url:"post_logout_redirect_uri"`
}

// LoginHandler starts the authorization code flow at the identity provider.
// It binds the flow to the user agent with a random state value kept in a
// short lived cookie.
func (b *Bridge) LoginHandler(rw http.ResponseWriter, req *http.Request) {
	state := rndm.GenerateRandomString(32)
	b.setStateCookie(rw, state)

	http.Redirect(rw, req, b.client.AuthorizationURL(state), http.StatusFound)
}

// CallbackHandler completes the authorization code flow. It redeems the
// authorization code, creates the session record and issues the session
// cookie before sending the user agent back to the frontend.
func (b *Bridge) CallbackHandler(rw http.ResponseWriter, req *http.Request) {
	if errValue := req.URL.Query().Get("error"); errValue != "" {
		b.logger.WithField("error", errValue).Debugln("logon was rejected by identity provider")
		utils.WriteErrorPage(rw, http.StatusForbidden, "", "logon was rejected")
		return
	}

	state := req.URL.Query().Get("state")
	expectedState, err := b.getStateCookieValue(req)
	if err != nil || state == "" || state != expectedState {
		b.logger.Debugln("logon callback with missing or mismatched state")
		utils.WriteErrorPage(rw, http.StatusBadRequest, "", "state mismatch")
		return
	}

	code := req.URL.Query().Get("code")
	if code == "" {
		utils.WriteErrorPage(rw, http.StatusBadRequest, "", "authorization code missing")
		return
	}

	pair, auth, err := b.client.Redeem(req.Context(), code)
	if err != nil {
		b.logger.WithError(utils.DescribeError(err)).Errorln("logon code redemption failed")
		utils.WriteErrorPage(rw, http.StatusBadGateway, "", "code redemption failed")
		return
	}

	sessionID := rndm.GenerateRandomString(24)
	if err := b.store.Put(req.Context(), sessionID, pair); err != nil {
		b.logger.WithError(err).Errorln("failed to store session token pair")
		utils.WriteErrorPage(rw, http.StatusInternalServerError, "", "session could not be created")
		return
	}
	if idToken := auth.IDToken(); idToken != "" {
		if err := b.store.PutIDToken(req.Context(), sessionID, idToken); err != nil {
			b.logger.WithError(err).Warnln("failed to store session identity token")
		}
	}

	sessionToken, err := b.codec.Issue(sessionID, auth.PrincipalName(), auth.Email(), auth.DisplayName())
	if err != nil {
		b.logger.WithError(err).Errorln("failed to issue session token")
		utils.WriteErrorPage(rw, http.StatusInternalServerError, "", "session could not be created")
		return
	}

	b.removeStateCookie(rw)
	b.setSessionCookie(rw, sessionToken)

	b.logger.WithFields(logrus.Fields{
		"session":      sessionID,
		"registration": b.client.RegistrationID(),
	}).Debugln("logon completed")

	http.Redirect(rw, req, b.frontendURI.String(), http.StatusFound)
}

// LogoutHandler terminates the session. The session record is removed from
// the store, both session related cookies are expired and the user agent is
// sent to the identity provider's end session endpoint. A missing or broken
// session cookie never fails logout.
func (b *Bridge) LogoutHandler(rw http.ResponseWriter, req *http.Request) {
	var sessionID string
	if value, err := b.getSessionCookieValue(req); err == nil {
		if claims, verifyErr := b.codec.Verify(value); verifyErr == nil {
			sessionID = claims.Id
		} else {
			b.logger.WithError(verifyErr).Debugln("logout with invalid session token")
		}
	}

	var idToken string
	if sessionID != "" {
		var err error
		idToken, err = b.store.GetIDToken(req.Context(), sessionID)
		if err != nil && err != session.ErrNotFound {
			b.logger.WithError(err).WithField("session", sessionID).Warnln("failed to load identity token at logout")
		}
		if err = b.store.Delete(req.Context(), sessionID); err != nil {
			b.logger.WithError(err).WithField("session", sessionID).Warnln("failed to delete session at logout")
		}
	}

	b.removeSessionCookie(rw)
	b.removeSecondaryCookie(rw)

	endSessionURI := b.client.EndSessionEndpointURI()
	if idToken == "" {
		http.Redirect(rw, req, endSessionURI.String(), http.StatusFound)
		return
	}

	err := utils.WriteRedirect(rw, http.StatusFound, endSessionURI, &endSessionRequest{
		IDTokenHint:           idToken,
		PostLogoutRedirectURI: b.frontendURI.String() + "/login",
	}, false)
	if err != nil {
		b.logger.WithError(err).Errorln("failed to write logout redirect")
	}
}

// withSessionClaims resolves and validates the session cookie of the request
// and makes the contained claims available to the next handler through the
// request's context.
func (b *Bridge) withSessionClaims(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		value, err := b.getSessionCookieValue(req)
		if err != nil {
			kbridge.WriteErrorResponse(rw, http.StatusUnauthorized, kbridge.ErrorIDMissingSession, "no session cookie", b.hardened)
			return
		}

		claims, err := b.codec.Verify(value)
		if err != nil {
			kbridge.WriteErrorResponse(rw, http.StatusUnauthorized, kbridge.ErrorIDInvalidSession, "session token validation failed", b.hardened)
			return
		}

		if _, err = b.store.Get(req.Context(), claims.Id); err != nil {
			if err == session.ErrNotFound {
				kbridge.WriteErrorResponse(rw, http.StatusUnauthorized, kbridge.ErrorIDSessionNotFound, "session is gone", b.hardened)
			} else {
				b.logger.WithError(err).Errorln("session store lookup failed")
				kbridge.WriteErrorResponse(rw, http.StatusBadGateway, kbridge.ErrorIDBadGateway, "session store unavailable", b.hardened)
			}
			return
		}

		next.ServeHTTP(rw, req.WithContext(kbridge.NewSessionClaimsContext(req.Context(), claims)))
	})
}

// UserHandler returns the identity claims of the current principal.
func (b *Bridge) UserHandler(rw http.ResponseWriter, req *http.Request) {
	claims, ok := kbridge.FromSessionClaimsContext(req.Context())
	if !ok {
		kbridge.WriteErrorResponse(rw, http.StatusUnauthorized, kbridge.ErrorIDMissingSession, "no session claims", b.hardened)
		return
	}

	err := utils.WriteJSON(rw, http.StatusOK, &kbridge.UserInfoResponse{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, "")
	if err != nil {
		b.logger.WithError(err).Errorln("failed to write user info response")
	}
}
