package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harsha992004/online-bus-booking-app/internal/app"
	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "busbooking",
		Usage: "bus ticket reservation service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the notification consumer",
				Action: withApp(serve),
			},
			{
				Name:   "migrate",
				Usage:  "apply the schema and backfill vehicle tags",
				Action: withApp(func(ctx context.Context, a *app.App) error { return a.Migrate(ctx) }),
			},
			{
				Name:   "seed",
				Usage:  "insert the default trips when empty and ensure the admin account",
				Action: withApp(func(ctx context.Context, a *app.App) error { return a.Seed(ctx) }),
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.WithError(err).Fatal("exiting")
	}
}

func serve(ctx context.Context, a *app.App) error {
	if a.Env.StoreDriver == "memory" {
		if err := a.Seed(ctx); err != nil {
			return err
		}
	}
	return a.Run(ctx)
}

// withApp loads config, builds the app and cancels ctx on SIGINT/SIGTERM.
func withApp(fn func(context.Context, *app.App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := intconfig.LoadEnv()
		if err != nil {
			return err
		}
		utils.SetupLogger(env.LogLevel)
		if env.GinMode != "" {
			gin.SetMode(env.GinMode)
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, env)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a)
	}
}
