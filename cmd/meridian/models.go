package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/meridian/pkg/registry"
)

// timeRounding trims duration output in CLI reports.
const timeRounding = time.Millisecond

var modelsFlags struct {
	provider string
	category string
	query    string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered canonical models",
	Long: `List the canonical models currently known to the gateway, with their
provider bindings and per-token price ranges.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelsFlags.provider, "provider", "", "only models bound to this provider")
	modelsCmd.Flags().StringVar(&modelsFlags.category, "category", "", "only models in this category")
	modelsCmd.Flags().StringVarP(&modelsFlags.query, "query", "q", "", "substring match on id, name, description")
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	models := a.registry.Search(registry.SearchFilter{
		Query:    modelsFlags.query,
		Category: modelsFlags.category,
		Provider: modelsFlags.provider,
	})

	if len(models) == 0 {
		fmt.Println("no models registered")
		return nil
	}

	for _, model := range models {
		fmt.Printf("%s", model.ID)
		if model.Name != "" && model.Name != model.ID {
			fmt.Printf("  (%s)", model.Name)
		}
		fmt.Println()
		for _, binding := range model.Bindings {
			state := "enabled"
			if !binding.Enabled {
				state = "disabled"
			}
			fmt.Printf("  %-16s %-48s priority=%d %s", binding.Provider, binding.NativeID, binding.Priority, state)
			if binding.InputCost != nil && binding.OutputCost != nil {
				fmt.Printf("  $%.4f/$%.4f per 1K", *binding.InputCost*1000, *binding.OutputCost*1000)
			}
			fmt.Println()
		}
	}

	stats := a.registry.Stats()
	fmt.Printf("\n%d models, %d bindings, %d aliases\n", stats.Models, stats.Bindings, stats.Aliases)
	return nil
}
