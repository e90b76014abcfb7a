package cmd

import (
	"encoding/json"
	"os"

	"livesync/core/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var clearSnapshots bool

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the persisted replica snapshots",
	Long: `Reads the configured snapshot backend and prints its entries as JSON, in replay order.
With --clear the stored snapshots are removed instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logg.Sync() }()

		store, err := openStore(cmd.Context(), cfg, logg)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.WithHint(errors.New("snapshots are disabled"), "set snapshot.backend to database or storage")
		}

		if clearSnapshots {
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			logg.Info("Snapshots cleared", zap.String("backend", cfg.Snapshot.Backend))
			return nil
		}

		entries, err := store.Load(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to load snapshots")
		}
		logg.Debug("Loaded snapshots", zap.Int("entries", len(entries)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&clearSnapshots, "clear", false, "remove the stored snapshots")
	RootCmd.AddCommand(snapshotCmd)
}
