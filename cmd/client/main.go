package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cards-client/internal/client"
	"github.com/DoyleJ11/cards-client/internal/httpapi"
)

const releaseVersion = "0.1.0"

func main() {
	// Optional; flags and CARDS_* env vars cover everything in .env.
	_ = godotenv.Load()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(context.Background()))
}

func run(ctx context.Context, cfg *Config) error {
	log, err := newLogger(cfg.verbose)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Connect(ctx, client.Options{
		URL:          cfg.serverURL,
		InitialToken: cfg.token,
		Heartbeat:    cfg.heartbeat,
		Logger:       log,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	switch {
	case cfg.nick != "" && cfg.join != "":
		joinAfterLogin(c, cfg.nick, cfg.join)
	case cfg.nick != "":
		c.Post(client.SetNick{Nick: cfg.nick})
	case cfg.join != "":
		c.Post(client.JoinGame{Game: cfg.join})
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           httpapi.SetupRoutes(c),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("view endpoint listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case <-c.Done():
		log.Info("client stopped")
	case err := <-errs:
		log.Error("view endpoint failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return c.Close()
}

// joinAfterLogin submits the nickname and holds the join back until a
// confirmation lands; an unnamed join would only bounce off the server's
// guard. Subscribing before the set_nick goes out means the confirmation
// cannot slip past unobserved.
func joinAfterLogin(c *client.Client, nick, join string) {
	sub := c.Subscribe()
	c.Post(client.SetNick{Nick: nick})
	go func() {
		for snap := range sub {
			if snap.Session.Nick != "" {
				c.Post(client.JoinGame{Game: join})
				return
			}
		}
	}()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
