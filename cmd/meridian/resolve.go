package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/meridian/pkg/registry"
)

var resolveFlags struct {
	strategy string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>",
	Short: "Resolve a model identifier to its canonical id and provider plan",
	Long: `Resolve a canonical id, alias, composite "provider/native" id, or bare
native id, and print the ordered provider plan the gateway would use.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveFlags.strategy, "strategy", "", "selection strategy (priority, cost, latency, balanced)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	identifier := args[0]
	canonicalID, ok := a.registry.Resolve(identifier)
	if !ok {
		return fmt.Errorf("model %q is not registered", identifier)
	}

	fmt.Printf("%s -> %s\n", identifier, canonicalID)

	strategy := registry.Strategy(resolveFlags.strategy)
	if strategy == "" {
		strategy = registry.Strategy(a.cfg.Routing.Strategy)
	}
	if !registry.ValidStrategy(strategy) {
		return fmt.Errorf("unknown strategy %q", strategy)
	}

	plan, found := a.registry.SelectProviders(canonicalID, strategy, a.tracker, registry.SelectOptions{})
	if !found || len(plan) == 0 {
		fmt.Println("no available providers")
		return nil
	}

	fmt.Printf("plan (%s):\n", strategy)
	for i, binding := range plan {
		fmt.Printf("  %d. %-16s %s\n", i+1, binding.Provider, binding.NativeID)
	}
	return nil
}
