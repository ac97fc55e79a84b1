/*
 * Copyright 2019 Kopano and its licensors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/bridge"
	"stash.kopano.io/kc/kbridge/config"
	"stash.kopano.io/kc/kbridge/gateway"
	"stash.kopano.io/kc/kbridge/oidcclient"
	"stash.kopano.io/kc/kbridge/refresh"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/signing"
)

var logger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{DisableColors: true},
	Level:     logrus.DebugLevel,
}

func newTestServer(ctx context.Context, t *testing.T, serverConfig *Config) (*httptest.Server, *Server, http.Handler, *config.Config) {
	cfg := &config.Config{
		Logger: logger,
	}

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	codec, err := signing.NewCodec(&signing.Config{
		Issuer:          "https://bff.local",
		SessionDuration: time.Minute,
		SigningKey:      key,
	})
	if err != nil {
		t.Fatal(err)
	}

	store := session.NewMemoryMapStore(ctx, time.Minute)

	issuerURI, _ := url.Parse("https://idp.local")
	client, err := oidcclient.NewClient(&oidcclient.Config{
		Config: cfg,

		IssuerURI: issuerURI,

		ClientID: "kbridge-client",
	})
	if err != nil {
		t.Fatal(err)
	}

	refresher, err := refresh.NewEngine(&refresh.Config{
		Config: cfg,

		Store:            store,
		TokenEndpointURI: client.TokenEndpointURI(),

		Buffer: 60 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	gatewayURI, _ := url.Parse("http://localhost:1")
	dispatcher, err := gateway.NewDispatcher(&gateway.Config{
		Config: cfg,

		Codec:     codec,
		Store:     store,
		Refresher: refresher,

		GatewayURI: gatewayURI,
		CookieName: bridge.DefaultCookieName,
	})
	if err != nil {
		t.Fatal(err)
	}

	frontendURI, _ := url.Parse("https://frontend.local")
	b, err := bridge.NewBridge(&bridge.Config{
		Config: cfg,

		Codec:  codec,
		Store:  store,
		Client: client,

		Dispatcher: dispatcher,

		FrontendURI: frontendURI,
	})
	if err != nil {
		t.Fatal(err)
	}

	if serverConfig == nil {
		serverConfig = &Config{}
	}
	serverConfig.Config = cfg
	serverConfig.Bridge = b

	server, err := NewServer(serverConfig)
	if err != nil {
		t.Fatal(err)
	}
	router := mux.NewRouter()
	server.AddRoutes(ctx, router)

	var handler http.Handler = router
	if server.cors != nil {
		handler = server.cors.Handler(router)
	}

	s := httptest.NewServer(handler)

	return s, server, handler, cfg
}

func TestNewTestServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer, _, _, _ := newTestServer(ctx, t, nil)
	httpServer.Close()
}

func TestCORSPreflight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer, _, handler, _ := newTestServer(ctx, t, &Config{
		AllowedOrigins: []string{"https://frontend.local"},
		CORSMaxAge:     3600,
	})
	defer httpServer.Close()

	req := httptest.NewRequest(http.MethodOptions, "/bff/user", nil)
	req.Header.Set("Origin", "https://frontend.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "https://frontend.local" {
		t.Errorf("preflight returned wrong allow origin: %v", origin)
	}
	if credentials := rr.Header().Get("Access-Control-Allow-Credentials"); credentials != "true" {
		t.Errorf("preflight returned wrong allow credentials: %v", credentials)
	}
}
