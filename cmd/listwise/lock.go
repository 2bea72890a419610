package main

import (
	"errors"

	"github.com/Veraticus/listwise/internal/cli"
	"github.com/Veraticus/listwise/internal/common"
	"github.com/Veraticus/listwise/internal/lock"
	"github.com/spf13/cobra"
)

func lockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and take SKU exclusivity locks",
		Long: `A locked SKU is live on one platform/account and may not be listed anywhere
else. Locks are shared through Redis when redis.addr is configured.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <sku>",
		Short: "Show who holds the lock on a SKU",
		Args:  cobra.ExactArgs(1),
		RunE:  runLockShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "acquire <sku> <platform> <account>",
		Short: "Lock a SKU to a platform/account",
		Args:  cobra.ExactArgs(3),
		RunE:  runLockAcquire,
	})

	return cmd
}

func runLockShow(cmd *cobra.Command, args []string) error {
	locks, err := newLockService(cmd.Context())
	if err != nil {
		return err
	}
	holder, err := locks.GetActiveLock(cmd.Context(), args[0])
	if err != nil {
		return common.NewUserError("Could not read the lock", err)
	}
	if holder == nil {
		cmd.Println(cli.FormatInfo(args[0] + " is not locked"))
		return nil
	}
	cmd.Println(cli.FormatInfo(args[0] + " is locked to " + holder.String()))
	return nil
}

func runLockAcquire(cmd *cobra.Command, args []string) error {
	locks, err := newLockService(cmd.Context())
	if err != nil {
		return err
	}
	sku, platform, account := args[0], args[1], args[2]
	if err := locks.AcquireLock(cmd.Context(), sku, platform, account); err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) {
			return common.NewUserError(sku+" is already locked to "+held.Holder.String(), err)
		}
		return err
	}
	cmd.Println(cli.FormatSuccess(sku + " locked to " + platform + "/" + account))
	return nil
}
