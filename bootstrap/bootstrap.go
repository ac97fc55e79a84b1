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

package bootstrap

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/redis/go-redis/v9"

	"stash.kopano.io/kc/kbridge/bridge"
	"stash.kopano.io/kc/kbridge/config"
	"stash.kopano.io/kc/kbridge/gateway"
	"stash.kopano.io/kc/kbridge/oidcclient"
	"stash.kopano.io/kc/kbridge/refresh"
	"stash.kopano.io/kc/kbridge/server"
	"stash.kopano.io/kc/kbridge/session"
	"stash.kopano.io/kc/kbridge/signing"
	"stash.kopano.io/kc/kbridge/utils"
)

// Session store backends.
const (
	sessionStoreNameMemory = "memory"
	sessionStoreNameRedis  = "redis"
)

// Defaults.
const (
	defaultURIBasePath = "/bff"

	defaultSessionDurationMinutes = 30
	defaultRefreshBufferSeconds   = 60
)

// Config is a typed application config which represents the user accessible
// config params.
type Config struct {
	Iss         string `yaml:"iss"`
	Listen      string `yaml:"listen"`
	URIBasePath string `yaml:"uri_base_path"`

	FrontendURI string `yaml:"frontend_uri"`
	GatewayURI  string `yaml:"gateway_uri"`
	ProviderURI string `yaml:"provider_uri"`

	ClientID       string   `yaml:"client_id"`
	ClientSecret   string   `yaml:"client_secret"`
	RegistrationID string   `yaml:"registration_id"`
	Scope          []string `yaml:"scope"`

	SigningPrivateKeyFile string `yaml:"signing_private_key"`
	SigningMethod         string `yaml:"signing_method"`

	SessionStore string `yaml:"session_store"`
	RedisURI     string `yaml:"redis_uri"`

	SessionDurationMinutes uint64 `yaml:"session_duration_minutes"`
	RefreshBufferSeconds   uint64 `yaml:"refresh_buffer_seconds"`

	CookieName          string `yaml:"cookie_name"`
	SecondaryCookieName string `yaml:"secondary_cookie_name"`
	CookieSecure        bool   `yaml:"cookie_secure"`

	AllowedOrigins    []string `yaml:"allowed_origins"`
	CORSMaxAgeSeconds int      `yaml:"cors_max_age_seconds"`

	Hardened bool `yaml:"hardened"`
	Insecure bool `yaml:"insecure"`
}

// Bootstrap is a data structure to hold configuration required to start
// kbridged.
type Bootstrap interface {
	Config() *config.Config
	Server() *server.Server
}

// Implementation of the bootstrap interface.
type bootstrap struct {
	issuerIdentifierURI *url.URL
	frontendURI         *url.URL
	gatewayURI          *url.URL
	providerURI         *url.URL
	redirectURI         *url.URL

	uriBasePath string

	tlsClientConfig *tls.Config

	signingKey    *rsa.PrivateKey
	signingMethod jwt.SigningMethod

	sessionDuration time.Duration
	refreshBuffer   time.Duration

	cfg *config.Config
	srv *server.Server
}

// Config returns the server configuration.
func (bs *bootstrap) Config() *config.Config {
	return bs.cfg
}

// Server returns the bootstrapped server.
func (bs *bootstrap) Server() *server.Server {
	return bs.srv
}

// Boot is the main entry point to bootstrap the kbridged service after
// validating the given configuration. The resulting Bootstrap struct can be
// used to retrieve the ready to run server and its config.
//
// This function should be used by consumers which want to embed kbridge as a
// library.
func Boot(ctx context.Context, bsConf *Config, serverConf *config.Config) (Bootstrap, error) {
	bs := &bootstrap{
		cfg: serverConf,
	}

	err := bs.initialize(bsConf)
	if err != nil {
		return nil, err
	}

	err = bs.setup(ctx, bsConf)
	if err != nil {
		return nil, err
	}

	return bs, nil
}

// initialize validates the provided parameters and adds them to the
// associated Bootstrap data.
func (bs *bootstrap) initialize(cfg *Config) error {
	logger := bs.cfg.Logger
	var err error

	bs.issuerIdentifierURI, err = url.Parse(cfg.Iss)
	if err != nil {
		return fmt.Errorf("invalid iss value, iss is not a valid URL, %v", err)
	} else if cfg.Iss == "" {
		return fmt.Errorf("missing iss value, did you provide the --iss parameter?")
	} else if bs.issuerIdentifierURI.Host == "" {
		return fmt.Errorf("invalid iss value, URL must have a host")
	}
	if bs.issuerIdentifierURI.Scheme != "https" {
		logger.Warnln("iss is not using https, session cookies should not be marked secure")
	}

	bs.uriBasePath = cfg.URIBasePath
	if bs.uriBasePath == "" {
		bs.uriBasePath = defaultURIBasePath
	}

	bs.frontendURI, err = url.Parse(cfg.FrontendURI)
	if err != nil || cfg.FrontendURI == "" || !bs.frontendURI.IsAbs() {
		if err == nil {
			err = fmt.Errorf("URL must be absolute")
		}
		return fmt.Errorf("invalid frontend-uri, %v", err)
	}

	bs.gatewayURI, err = url.Parse(cfg.GatewayURI)
	if err != nil || cfg.GatewayURI == "" || !bs.gatewayURI.IsAbs() {
		if err == nil {
			err = fmt.Errorf("URL must be absolute")
		}
		return fmt.Errorf("invalid gateway-uri, %v", err)
	}

	bs.providerURI, err = url.Parse(cfg.ProviderURI)
	if err != nil || cfg.ProviderURI == "" || !bs.providerURI.IsAbs() {
		if err == nil {
			err = fmt.Errorf("URL must be absolute")
		}
		return fmt.Errorf("invalid provider-uri, %v", err)
	}

	bs.redirectURI, err = url.Parse(bs.issuerIdentifierURI.String() + bs.uriBasePath + "/login/callback")
	if err != nil {
		return fmt.Errorf("failed to build redirect URI, %v", err)
	}

	if cfg.ClientID == "" {
		return fmt.Errorf("missing client-id value")
	}

	if cfg.Insecure {
		// NOTE(longsleep): This disable http2 client support. See https://github.com/golang/go/issues/14275 for reasons.
		bs.tlsClientConfig = utils.InsecureSkipVerifyTLSConfig
		logger.Warnln("insecure mode, TLS client connections are susceptible to man-in-the-middle attacks")
	}

	signingMethodString := cfg.SigningMethod
	if signingMethodString == "" {
		signingMethodString = jwt.SigningMethodRS256.Name
	}
	bs.signingMethod = jwt.GetSigningMethod(signingMethodString)
	if bs.signingMethod == nil {
		return fmt.Errorf("unknown signing method: %s", signingMethodString)
	}

	if cfg.SigningPrivateKeyFile == "" {
		return fmt.Errorf("missing signing-private-key value")
	}
	logger.WithField("file", cfg.SigningPrivateKeyFile).Infoln("loading signing key")
	bs.signingKey, err = signing.LoadSigningKeyFromFile(cfg.SigningPrivateKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %v", err)
	}

	sessionDurationMinutes := cfg.SessionDurationMinutes
	if sessionDurationMinutes == 0 {
		sessionDurationMinutes = defaultSessionDurationMinutes
	}
	bs.sessionDuration = time.Duration(sessionDurationMinutes) * time.Minute

	refreshBufferSeconds := cfg.RefreshBufferSeconds
	if refreshBufferSeconds == 0 {
		refreshBufferSeconds = defaultRefreshBufferSeconds
	}
	bs.refreshBuffer = time.Duration(refreshBufferSeconds) * time.Second

	bs.cfg.ListenAddr = cfg.Listen
	bs.cfg.Hardened = cfg.Hardened
	if bs.cfg.Hardened {
		logger.Infoln("hardened mode, error responses carry no detail")
	}

	return nil
}

// setup creates the kbridge components from the associated Bootstrap data
// and wires them into a ready to run server.
func (bs *bootstrap) setup(ctx context.Context, cfg *Config) error {
	logger := bs.cfg.Logger

	httpClient := utils.DefaultHTTPClient
	if bs.tlsClientConfig != nil {
		httpClient = utils.InsecureHTTPClient
		bs.cfg.HTTPTransport = utils.HTTPTransportWithTLSClientConfig(bs.tlsClientConfig)
	}

	store, err := bs.setupSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	codec, err := signing.NewCodec(&signing.Config{
		Issuer:          bs.issuerIdentifierURI.String(),
		SessionDuration: bs.sessionDuration,

		SigningMethod: bs.signingMethod,
		SigningKey:    bs.signingKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create token codec: %v", err)
	}

	client, err := oidcclient.NewClient(&oidcclient.Config{
		Config: bs.cfg,

		IssuerURI:   bs.providerURI,
		RedirectURI: bs.redirectURI,

		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		RegistrationID: cfg.RegistrationID,
		Scopes:         cfg.Scope,

		HTTPClient: httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to create oidc client: %v", err)
	}

	refresher, err := refresh.NewEngine(&refresh.Config{
		Config: bs.cfg,

		Store:            store,
		TokenEndpointURI: client.TokenEndpointURI(),

		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,

		Buffer: bs.refreshBuffer,

		HTTPClient: httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to create refresh engine: %v", err)
	}

	dispatcher, err := gateway.NewDispatcher(&gateway.Config{
		Config: bs.cfg,

		Codec:     codec,
		Store:     store,
		Refresher: refresher,

		GatewayURI: bs.gatewayURI,
		CookieName: cfg.CookieName,

		HTTPClient: httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %v", err)
	}

	b, err := bridge.NewBridge(&bridge.Config{
		Config: bs.cfg,

		Codec:  codec,
		Store:  store,
		Client: client,

		Dispatcher: dispatcher,

		URIBasePath: bs.uriBasePath,
		FrontendURI: bs.frontendURI,

		CookieName:          cfg.CookieName,
		SecondaryCookieName: cfg.SecondaryCookieName,
		CookieSecure:        cfg.CookieSecure,
	})
	if err != nil {
		return fmt.Errorf("failed to create bridge: %v", err)
	}

	bs.srv, err = server.NewServer(&server.Config{
		Config: bs.cfg,

		Bridge: b,

		AllowedOrigins: cfg.AllowedOrigins,
		CORSMaxAge:     cfg.CORSMaxAgeSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}

	logger.WithField("registration", client.RegistrationID()).Infoln("bridge set up")

	return nil
}

func (bs *bootstrap) setupSessionStore(ctx context.Context, cfg *Config) (session.Store, error) {
	logger := bs.cfg.Logger

	sessionStoreName := cfg.SessionStore
	if sessionStoreName == "" {
		if cfg.RedisURI != "" {
			sessionStoreName = sessionStoreNameRedis
		} else {
			sessionStoreName = sessionStoreNameMemory
		}
	}

	switch sessionStoreName {
	case sessionStoreNameRedis:
		if cfg.RedisURI == "" {
			return nil, fmt.Errorf("redis session store requires redis-uri value")
		}
		options, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			return nil, fmt.Errorf("invalid redis-uri, %v", err)
		}
		client := redis.NewClient(options)
		if pingErr := client.Ping(ctx).Err(); pingErr != nil {
			logger.WithError(pingErr).Warnln("redis is not reachable at startup")
		}
		logger.WithField("addr", options.Addr).Infoln("using redis session store")
		return session.NewRedisStore(client, bs.sessionDuration), nil

	case sessionStoreNameMemory:
		logger.Warnln("using in memory session store, sessions are lost on restart")
		return session.NewMemoryMapStore(ctx, bs.sessionDuration), nil

	default:
		return nil, fmt.Errorf("unknown session store %v", sessionStoreName)
	}
}
