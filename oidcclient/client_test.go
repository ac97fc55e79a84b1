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

package oidcclient

import (
	"net/url"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/config"
)

var logger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{DisableColors: true},
	Level:     logrus.DebugLevel,
}

func newTestClient(t *testing.T, issuer string) *Client {
	t.Helper()

	issuerURI, err := url.Parse(issuer)
	if err != nil {
		t.Fatal(err)
	}

	client, err := NewClient(&Config{
		Config: &config.Config{
			Logger: logger,
		},

		IssuerURI: issuerURI,

		ClientID:     "kbridge-client",
		ClientSecret: "kbridge-secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	return client
}

func TestClientEndpoints(t *testing.T) {
	client := newTestClient(t, "https://idp.local/auth/realms/test")

	if uri := client.TokenEndpointURI().String(); uri != "https://idp.local/auth/realms/test/protocol/openid-connect/token" {
		t.Errorf("got wrong token endpoint: %v", uri)
	}
	if uri := client.EndSessionEndpointURI().String(); uri != "https://idp.local/auth/realms/test/protocol/openid-connect/logout" {
		t.Errorf("got wrong end session endpoint: %v", uri)
	}
}

func TestClientEndpointsTrailingSlash(t *testing.T) {
	client := newTestClient(t, "https://idp.local/auth/realms/test/")

	if uri := client.TokenEndpointURI().String(); uri != "https://idp.local/auth/realms/test/protocol/openid-connect/token" {
		t.Errorf("got wrong token endpoint: %v", uri)
	}
}

func TestClientRegistrationIDDefaultsToClientID(t *testing.T) {
	client := newTestClient(t, "https://idp.local")

	if registrationID := client.RegistrationID(); registrationID != "kbridge-client" {
		t.Errorf("got wrong registration id: %v", registrationID)
	}
}

func TestAuthorizationURLCarriesState(t *testing.T) {
	client := newTestClient(t, "https://idp.local")

	uri, err := url.Parse(client.AuthorizationURL("state1"))
	if err != nil {
		t.Fatal(err)
	}
	if uri.Path != "/protocol/openid-connect/auth" {
		t.Errorf("got wrong authorization path: %v", uri.Path)
	}
	if state := uri.Query().Get("state"); state != "state1" {
		t.Errorf("got wrong state: %v", state)
	}
	if responseType := uri.Query().Get("response_type"); responseType != "code" {
		t.Errorf("got wrong response type: %v", responseType)
	}
}
