package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			health, healthErr := apiClient.Health(ctx)
			list, listErr := apiClient.Publications().List(ctx, nil)

			if getOutputFormat() != "table" {
				summary := map[string]interface{}{}
				if healthErr == nil {
					summary["status"] = health.Status
					summary["storage"] = health.Storage
				}
				if listErr == nil {
					summary["publications"] = list.TotalResults
				}
				return printOutput(summary)
			}

			fmt.Fprintln(out, "Datahub")
			fmt.Fprintln(out, strings.Repeat("=", 40))

			if healthErr != nil {
				fmt.Fprintf(out, "  Server:        (error: %v)\n", healthErr)
			} else {
				fmt.Fprintf(out, "  Server:        %s (database %s)\n", health.Status, health.Database)
				fmt.Fprintf(out, "  Storage:       %s\n", health.Storage)
			}

			if listErr != nil {
				fmt.Fprintf(out, "  Publications:  (error: %v)\n", listErr)
			} else {
				fmt.Fprintf(out, "  Publications:  %d\n", list.TotalResults)
			}

			if token := apiClient.GetToken(); token != "" {
				if claims, err := inspectToken(token); err == nil {
					fmt.Fprintf(out, "  Logged in as:  %s\n", claims.Email)
				}
			}
			return nil
		},
	}
}
