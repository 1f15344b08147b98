package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/kvstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSlotsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect or reset the raw collection slots",
	}
	cmd.AddCommand(newSlotsShowCmd(c), newSlotsResetCmd(c))
	return cmd
}

func collectionArgs(args []string) ([]warehouse.Collection, error) {
	if len(args) == 0 {
		return warehouse.AllCollections(), nil
	}
	out := make([]warehouse.Collection, 0, len(args))
	for _, a := range args {
		col := warehouse.Collection(a)
		if !slices.Contains(warehouse.AllCollections(), col) {
			return nil, fmt.Errorf("unknown collection %q", a)
		}
		out = append(out, col)
	}
	return out, nil
}

func newSlotsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show [trailers|shipments|quizReports]...",
		Short: "Print the stored value of each slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := collectionArgs(args)
			if err != nil {
				return err
			}
			ctx := background(cmd)
			slots, err := kvstore.Open(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer func() { _ = slots.Close() }()

			w := cmd.OutOrStdout()
			for _, col := range cols {
				key := appwarehouse.SlotKey(c.cfg.Storage.KeyPrefix, col)
				value, ok, err := slots.Get(ctx, key)
				if err != nil {
					return fmt.Errorf("read %s: %w", key, err)
				}
				fmt.Fprintf(w, "# %s\n", key)
				if !ok {
					fmt.Fprintln(w, "(absent)")
					continue
				}
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, []byte(value), "", "  "); err != nil {
					// not JSON; show it as stored
					fmt.Fprintln(w, value)
					continue
				}
				fmt.Fprintln(w, pretty.String())
			}
			return nil
		},
	}
}

func newSlotsResetCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <trailers|shipments|quizReports>...",
		Short: "Remove slots so their collections start empty",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := collectionArgs(args)
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to remove %d slot(s) without --yes", len(cols))
			}
			ctx := background(cmd)
			slots, err := kvstore.Open(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer func() { _ = slots.Close() }()

			for _, col := range cols {
				key := appwarehouse.SlotKey(c.cfg.Storage.KeyPrefix, col)
				if err := slots.Remove(ctx, key); err != nil {
					return fmt.Errorf("remove %s: %w", key, err)
				}
				c.log.Info("Slot removed", zap.String("key", key))
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", key)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm removal")
	return cmd
}
