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

package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kc/kbridge/bridge"
)

// Server is our HTTP server implementation.
type Server struct {
	listenAddr string

	bridge *bridge.Bridge
	cors   *cors.Cors

	logger logrus.FieldLogger
}

// NewServer constructs a server from the provided parameters.
func NewServer(c *Config) (*Server, error) {
	s := &Server{
		listenAddr: c.Config.ListenAddr,

		bridge: c.Bridge,

		logger: c.Config.Logger,
	}

	if len(c.AllowedOrigins) > 0 {
		s.cors = cors.New(cors.Options{
			AllowedOrigins: c.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodDelete,
				http.MethodPatch,
			},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           c.CORSMaxAge,
		})
	}

	return s, nil
}

// AddRoutes add the associated Servers URL routes to the provided router.
func (s *Server) AddRoutes(ctx context.Context, router *mux.Router) {
	router.HandleFunc("/health-check", s.HealthCheckHandler)
	router.Handle("/metrics", promhttp.Handler())

	if s.bridge != nil {
		s.bridge.AddRoutes(ctx, router)
	}
}

// Serve starts all the accociated servers resources and listeners and blocks
// forever until signals or error occurs.
func (s *Server) Serve(ctx context.Context) error {
	serveCtx, serveCtxCancel := context.WithCancel(ctx)
	defer serveCtxCancel()

	logger := s.logger

	errCh := make(chan error, 2)
	exitCh := make(chan bool, 1)
	signalCh := make(chan os.Signal, 1)

	router := mux.NewRouter()
	s.AddRoutes(serveCtx, router)

	var handler http.Handler = router
	if s.cors != nil {
		handler = s.cors.Handler(router)
	}

	// HTTP listener.
	srv := &http.Server{
		Handler: handler,
	}

	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
		logger.Debugln("http listener stopped")
		close(exitCh)
	}()
	logger.WithField("listenAddr", s.listenAddr).Infoln("ready to handle requests")

	// Wait for exit or error.
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err = <-errCh:
		// breaks
	case reason := <-signalCh:
		logger.WithField("signal", reason).Warnln("received signal")
		// breaks
	case <-serveCtx.Done():
		// breaks
	}

	// Shutdown, server will stop to accept new connections, requires Go 1.8+.
	logger.Infoln("clean server shutdown start")
	shutDownCtx, shutDownCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	if shutdownErr := srv.Shutdown(shutDownCtx); shutdownErr != nil {
		logger.WithError(shutdownErr).Warn("clean server shutdown failed")
	}

	// Cancel our own context, wait on managers.
	serveCtxCancel()
	func() {
		for {
			select {
			case <-exitCh:
				return
			default:
				// HTTP listener has not quit yet.
				logger.Info("waiting for http listener to exit")
			}
			select {
			case reason := <-signalCh:
				logger.WithField("signal", reason).Warn("received signal")
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
	}()
	shutDownCtxCancel() // prevent leak.

	return err
}
