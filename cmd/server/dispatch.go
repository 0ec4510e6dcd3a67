package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaronsela1/productivity-bot/internal/di"
)

func newDispatchCmd() *cobra.Command {
	var interval string

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run one dispatch for an interval and print the result",
		Long: `Run the fan-out for every user on --interval and print the aggregate
result as JSON. Each check is still sent to BASE_URL/api/check, so a server
must be reachable there.`,
		Example: `  productivity-bot dispatch --interval 4h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			container, err := di.NewContainer(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			res, err := container.DispatchService.Run(cmd.Context(), interval)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "check interval to dispatch (1h, 4h or 1d)")
	_ = cmd.MarkFlagRequired("interval")
	return cmd
}
