package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect and log group changes",
	Long: `Connects to the publication server, subscribes the given items as one group
and logs load, init, unload and update events until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx, itemFlags)
		if err != nil {
			return err
		}
		defer rt.close()

		rt.logger.Info("Watching", zap.String("url", rt.cfg.Transport.URL), zap.Int("items", rt.group.Len()))

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error { return rt.ws.Run(ctx) })
		eg.Go(func() error { return rt.persist(ctx) })
		return eg.Wait()
	},
}

func init() {
	addItemFlags(watchCmd)
	RootCmd.AddCommand(watchCmd)
}
