// Command devserver runs the in-memory ERP backend for local development.
// Tenants are reached as <schema>.<ERP_API_HOST>; point erpctl at it with
// --scheme http --connect localhost:8080.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-erp-client/devserver"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/logger"
	"github.com/rs/zerolog"
)

const (
	tenantsEnvVar  = "DEVSERVER_TENANTS"
	emailEnvVar    = "DEVSERVER_EMAIL"
	passwordEnvVar = "DEVSERVER_PASSWORD"
)

func main() {
	c := config.New(nil)
	log := logger.New(c.GetEnv(), c.GetLogLevel())

	if err := run(c, log); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run(c config.Config, log zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	s, err := devserver.New(c, devserver.WithLogger(log))
	if err != nil {
		return err
	}
	if err := seed(s); err != nil {
		return err
	}

	server := &http.Server{Addr: c.GetPort(), Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(server, log)
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func seed(s *devserver.Server) error {
	email := config.GetEnv(emailEnvVar, "admin@example.com")
	password := config.GetEnv(passwordEnvVar, "ChangeMe2024")

	for _, schema := range strings.Split(config.GetEnv(tenantsEnvVar, "acme,globex"), ",") {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			continue
		}
		if err := s.SeedTenant(devserver.SeedOptions{
			SchemaName: schema,
			Email:      email,
			Password:   password,
			Locations:  3,
			Invoices:   5,
		}); err != nil {
			return err
		}
	}
	return nil
}

func listenAndServe(server *http.Server, log zerolog.Logger) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
