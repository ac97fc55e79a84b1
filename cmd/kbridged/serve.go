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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stash.kopano.io/kc/kbridge/bootstrap"
	"stash.kopano.io/kc/kbridge/config"
)

const defaultListenAddr = "127.0.0.1:8778"

func commandServe() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [...args]",
		Short: "Start server and listen for requests",
		Run: func(cmd *cobra.Command, args []string) {
			if err := serve(cmd, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("config", "", "Full path to YAML config file")
	serveCmd.Flags().String("listen", envOrDefault("KBRIDGED_LISTEN", defaultListenAddr), "TCP listen address")
	serveCmd.Flags().String("iss", "", "Token issuer URL, also the external base URL of this service")
	serveCmd.Flags().String("uri-base-path", "", "Path prefix under which all bridge routes are mounted")
	serveCmd.Flags().String("frontend-uri", "", "Base URL of the frontend application")
	serveCmd.Flags().String("gateway-uri", "", "Base URL of the backend gateway proxied requests go to")
	serveCmd.Flags().String("provider-uri", "", "Issuer URL of the identity provider")
	serveCmd.Flags().String("client-id", "", "OAuth2 client ID registered at the identity provider")
	serveCmd.Flags().String("client-secret", envOrDefault("KBRIDGED_CLIENT_SECRET", ""), "OAuth2 client secret")
	serveCmd.Flags().String("registration-id", "", "Name of the identity provider registration")
	serveCmd.Flags().StringArray("scope", nil, "OAuth2 scope to request, can be used multiple times")
	serveCmd.Flags().String("signing-private-key", "", "PEM key file (RSA) used to sign session tokens")
	serveCmd.Flags().String("signing-method", "", "JWT signing method (default RS256)")
	serveCmd.Flags().String("session-store", "", "Session store backend (redis or memory)")
	serveCmd.Flags().String("redis-uri", envOrDefault("KBRIDGED_REDIS_URI", ""), "Redis connection URI")
	serveCmd.Flags().Uint64("session-duration", 0, "Session lifetime in minutes")
	serveCmd.Flags().Uint64("refresh-buffer", 0, "Remaining access token lifetime in seconds below which a refresh is triggered")
	serveCmd.Flags().String("cookie-name", "", "Name of the session cookie")
	serveCmd.Flags().String("secondary-cookie-name", "", "Name of the legacy session cookie expired at logout")
	serveCmd.Flags().Bool("cookie-secure", false, "Mark session cookies as secure")
	serveCmd.Flags().StringArray("allowed-origin", nil, "CORS allowed origin, can be used multiple times")
	serveCmd.Flags().Int("cors-max-age", 0, "CORS preflight max age in seconds")
	serveCmd.Flags().Bool("hardened", false, "Suppress error detail in responses")
	serveCmd.Flags().Bool("insecure", false, "Disable TLS certificate and hostname validation")
	serveCmd.Flags().Bool("log-timestamp", true, "Prefix each log line with timestamp")
	serveCmd.Flags().String("log-level", "info", "Log level (one of panic, fatal, error, warn, info or debug)")

	return serveCmd
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	logTimestamp, _ := cmd.Flags().GetBool("log-timestamp")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(!logTimestamp, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	logger.Infoln("serve start")

	bsConf := &bootstrap.Config{}
	bsConf.Iss, _ = cmd.Flags().GetString("iss")
	bsConf.Listen, _ = cmd.Flags().GetString("listen")
	bsConf.URIBasePath, _ = cmd.Flags().GetString("uri-base-path")
	bsConf.FrontendURI, _ = cmd.Flags().GetString("frontend-uri")
	bsConf.GatewayURI, _ = cmd.Flags().GetString("gateway-uri")
	bsConf.ProviderURI, _ = cmd.Flags().GetString("provider-uri")
	bsConf.ClientID, _ = cmd.Flags().GetString("client-id")
	bsConf.ClientSecret, _ = cmd.Flags().GetString("client-secret")
	bsConf.RegistrationID, _ = cmd.Flags().GetString("registration-id")
	bsConf.Scope, _ = cmd.Flags().GetStringArray("scope")
	bsConf.SigningPrivateKeyFile, _ = cmd.Flags().GetString("signing-private-key")
	bsConf.SigningMethod, _ = cmd.Flags().GetString("signing-method")
	bsConf.SessionStore, _ = cmd.Flags().GetString("session-store")
	bsConf.RedisURI, _ = cmd.Flags().GetString("redis-uri")
	bsConf.SessionDurationMinutes, _ = cmd.Flags().GetUint64("session-duration")
	bsConf.RefreshBufferSeconds, _ = cmd.Flags().GetUint64("refresh-buffer")
	bsConf.CookieName, _ = cmd.Flags().GetString("cookie-name")
	bsConf.SecondaryCookieName, _ = cmd.Flags().GetString("secondary-cookie-name")
	bsConf.CookieSecure, _ = cmd.Flags().GetBool("cookie-secure")
	bsConf.AllowedOrigins, _ = cmd.Flags().GetStringArray("allowed-origin")
	bsConf.CORSMaxAgeSeconds, _ = cmd.Flags().GetInt("cors-max-age")
	bsConf.Hardened, _ = cmd.Flags().GetBool("hardened")
	bsConf.Insecure, _ = cmd.Flags().GetBool("insecure")

	if configFn, _ := cmd.Flags().GetString("config"); configFn != "" {
		logger.WithField("file", configFn).Infoln("loading config file")
		if err = bootstrap.LoadConfigFromFile(bsConf, configFn); err != nil {
			return err
		}
	}

	cfg := &config.Config{
		Logger: logger,
	}

	bs, err := bootstrap.Boot(ctx, bsConf, cfg)
	if err != nil {
		return err
	}

	logger.Infoln("serve started")
	return bs.Server().Serve(ctx)
}
