package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wish-machine/internal/quota"
	"wish-machine/internal/store"
)

var (
	userEmail string
	userTier  string
	userCount int
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts and their wish allowances",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account and print its API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, ok := quota.ParseTier(userTier)
		if !ok {
			return fmt.Errorf("unknown tier %q", userTier)
		}
		return withStore(func(ctx context.Context, db *store.DB) error {
			u, err := db.CreateUser(ctx, userEmail, tier, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s)\nAPI key: %s\n", u.ID, u.Email, u.Usage.Tier, u.APIKey)
			return nil
		})
	},
}

var userBonusCmd = &cobra.Command{
	Use:   "bonus",
	Short: "Grant bonus wishes to an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userCount <= 0 {
			return fmt.Errorf("--count must be positive, got %d", userCount)
		}
		return withStore(func(ctx context.Context, db *store.DB) error {
			u, err := db.UserByEmail(ctx, userEmail)
			if err != nil {
				return fmt.Errorf("user %s: %w", userEmail, err)
			}
			if err := db.AddBonus(ctx, u.ID, userCount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted %d bonus wishes to %s (now %d)\n", userCount, u.Email, u.Usage.BonusWishes+userCount)
			return nil
		})
	},
}

var userTierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Change the subscription tier of an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, ok := quota.ParseTier(userTier)
		if !ok {
			return fmt.Errorf("unknown tier %q", userTier)
		}
		return withStore(func(ctx context.Context, db *store.DB) error {
			u, err := db.UserByEmail(ctx, userEmail)
			if err != nil {
				return fmt.Errorf("user %s: %w", userEmail, err)
			}
			if err := db.SetTier(ctx, u.ID, tier); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%d wishes/month)\n", u.Email, u.Usage.Tier, tier, quota.Limit(tier))
			return nil
		})
	},
}

func withStore(fn func(ctx context.Context, db *store.DB) error) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(context.Background(), db)
}

func init() {
	userCmd.PersistentFlags().StringVar(&userEmail, "email", "", "account email")
	_ = userCmd.MarkPersistentFlagRequired("email")

	userCreateCmd.Flags().StringVar(&userTier, "tier", string(quota.TierFree), "subscription tier: free, premium or unlimited")
	userTierCmd.Flags().StringVar(&userTier, "tier", "", "subscription tier: free, premium or unlimited")
	_ = userTierCmd.MarkFlagRequired("tier")
	userBonusCmd.Flags().IntVar(&userCount, "count", 0, "number of bonus wishes to add")
	_ = userBonusCmd.MarkFlagRequired("count")

	userCmd.AddCommand(userCreateCmd, userBonusCmd, userTierCmd)
	rootCmd.AddCommand(userCmd)
}
