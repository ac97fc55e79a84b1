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
)

const stateCookieNameSuffix = "-state"

// stateCookieMaxAge bounds how long a pending logon attempt stays valid.
const stateCookieMaxAge = 600

func (b *Bridge) getSessionCookieValue(req *http.Request) (string, error) {
	cookie, err := req.Cookie(b.cookieName)
	if err != nil {
		return "", err
	}

	return cookie.Value, nil
}

func (b *Bridge) setSessionCookie(rw http.ResponseWriter, value string) {
	cookie := http.Cookie{
		Name:  b.cookieName,
		Value: value,

		Path:     "/",
		Secure:   b.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(rw, &cookie)
}

func (b *Bridge) removeSessionCookie(rw http.ResponseWriter) {
	cookie := http.Cookie{
		Name: b.cookieName,

		Path:     "/",
		Secure:   b.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,

		MaxAge: -1,
	}
	http.SetCookie(rw, &cookie)
}

func (b *Bridge) removeSecondaryCookie(rw http.ResponseWriter) {
	cookie := http.Cookie{
		Name: b.secondaryCookieName,

		Path:     "/",
		HttpOnly: true,

		MaxAge: -1,
	}
	http.SetCookie(rw, &cookie)
}

func (b *Bridge) getStateCookieValue(req *http.Request) (string, error) {
	cookie, err := req.Cookie(b.cookieName + stateCookieNameSuffix)
	if err != nil {
		return "", err
	}

	return cookie.Value, nil
}

func (b *Bridge) setStateCookie(rw http.ResponseWriter, value string) {
	cookie := http.Cookie{
		Name:  b.cookieName + stateCookieNameSuffix,
		Value: value,

		Path:     b.uriBasePath + "/login",
		Secure:   b.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,

		MaxAge: stateCookieMaxAge,
	}
	http.SetCookie(rw, &cookie)
}

func (b *Bridge) removeStateCookie(rw http.ResponseWriter) {
	cookie := http.Cookie{
		Name: b.cookieName + stateCookieNameSuffix,

		Path:     b.uriBasePath + "/login",
		Secure:   b.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,

		MaxAge: -1,
	}
	http.SetCookie(rw, &cookie)
}
