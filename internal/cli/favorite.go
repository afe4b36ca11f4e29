package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorite",
		Aliases: []string{"fav"},
		Short:   "Manage your favorite publications",
	}

	cmd.AddCommand(requireAuth(newFavoriteListCmd()))
	cmd.AddCommand(requireAuth(newFavoriteToggleCmd()))

	return cmd
}

func newFavoriteListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your favorites, 15 per page by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			list, err := apiClient.Favorites().List(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list favorites: %w", err)
			}
			return renderPublicationList(list, "favorites")
		},
	}

	flags.register(cmd)
	return cmd
}

func newFavoriteToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <publication-id>",
		Short: "Add a publication to your favorites, or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Favorites().Toggle(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to toggle favorite: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(res)
			}

			if res.Added {
				fmt.Fprintf(out, "Added %s to favorites\n", args[0])
			} else {
				fmt.Fprintf(out, "Removed %s from favorites\n", args[0])
			}
			fmt.Fprintf(out, "You have %d favorite(s)\n", len(res.Favorites))
			return nil
		},
	}
}
