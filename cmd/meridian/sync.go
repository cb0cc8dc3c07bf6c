package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one catalog sync pass and exit",
	Long: `Fetch every configured provider's model catalog, merge the models into
the registry, persist catalog pricing, and print a per-provider report.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	report := a.ingester.SyncAll(ctx)

	for _, r := range report.Reports {
		if r.Err != nil {
			fmt.Printf("✗ %-16s error: %v\n", r.Provider, r.Err)
			continue
		}
		fmt.Printf("✓ %-16s fetched=%d added=%d updated=%d disabled=%d skipped=%d (%s)\n",
			r.Provider, r.Fetched, r.Added, r.Updated, r.Disabled, r.Skipped, r.Duration.Round(timeRounding))
	}

	if report.Failed() {
		return fmt.Errorf("catalog sync finished with errors")
	}
	return nil
}
