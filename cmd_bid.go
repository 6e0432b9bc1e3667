package main

import (
	"fmt"

	"auction-bidsync/internal/biddingerrors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	bidCmd.Flags().String("amount", "", "bid amount (defaults to the current minimum bid)")
	rootCmd.AddCommand(bidCmd)
}

var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Place one bid on the active item and exit",
	RunE:  runBid,
}

func runBid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var amount *decimal.Decimal
	if raw, _ := cmd.Flags().GetString("amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%w - amount %q: %v", biddingerrors.ErrInvalidBid, raw, err)
		}
		amount = &d
	}

	ctx := cmd.Context()
	sess := newSession(cfg, false)
	if err := sess.Refresh(ctx); err != nil {
		return err
	}

	out, err := sess.PlaceBid(ctx, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bid %s on item %d accepted\n", out.Amount.StringFixed(2), out.ItemID)
	if out.WinningHint != nil && *out.WinningHint {
		fmt.Fprintln(cmd.OutOrStdout(), "server reports you are leading")
	}
	return nil
}
