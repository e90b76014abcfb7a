package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"livesync/core/errors"
	"livesync/core/loader"
	"livesync/core/logger"
	"livesync/core/middleware/rayid"
	"livesync/feature/inspect"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "livesync/docs/swagger"
)

// @title livesync inspection API
// @version 1.0
// @description Read-only view of the live replicas of a running group.
// @BasePath /

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect and serve the group over HTTP",
	Long:  `Like watch, and additionally serves the inspection API (/health, /values, /values/:name) and its docs at /swagger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx, itemFlags)
		if err != nil {
			return err
		}
		defer rt.close()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// RayID must be first to trace everything
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(rt.logger, c)
			l.Debug("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		mgr := loader.NewManager(rt.logger)
		mgr.Register(inspect.NewFeature(rt.group, rt.logger))
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error { return rt.ws.Run(ctx) })
		eg.Go(func() error { return rt.persist(ctx) })
		eg.Go(func() error {
			addr := rt.cfg.Server.Addr()
			rt.logger.Info("Starting server", zap.String("addr", addr))
			return app.Listen(addr)
		})
		eg.Go(func() error {
			<-ctx.Done()
			rt.logger.Info("Shutting down server...")
			return app.ShutdownWithTimeout(rt.cfg.Server.ShutdownTimeout())
		})

		if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	addItemFlags(serveCmd)
	RootCmd.AddCommand(serveCmd)
}
