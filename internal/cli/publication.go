package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terrain-ouvert/datahub/pkg/client"
)

func newPublicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publication",
		Aliases: []string{"pub"},
		Short:   "Manage publications",
	}

	cmd.AddCommand(newPublicationListCmd())
	cmd.AddCommand(newPublicationGetCmd())
	cmd.AddCommand(requireAuth(newPublicationCreateCmd()))
	cmd.AddCommand(requireAuth(newPublicationUpdateCmd()))
	cmd.AddCommand(requireAuth(newPublicationDeleteCmd()))

	return cmd
}

// listFlags are shared by the listing commands
type listFlags struct {
	page    int
	limit   int
	sort    []string
	fields  []string
	filters []string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 0, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size")
	cmd.Flags().StringSliceVar(&f.sort, "sort", nil, "sort keys, '-' prefix for descending (e.g. -rating,title)")
	cmd.Flags().StringSliceVar(&f.fields, "fields", nil, "fields to return")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "filter as key=value, e.g. 'rating[gte]=3' (repeatable)")
}

func (f *listFlags) options() (*client.ListOptions, error) {
	opts := &client.ListOptions{
		Page:   f.page,
		Limit:  f.limit,
		Sort:   f.sort,
		Fields: f.fields,
		Filter: map[string]string{},
	}
	for _, raw := range f.filters {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", raw)
		}
		opts.Filter[key] = value
	}
	return opts, nil
}

func newPublicationListCmd() *cobra.Command {
	var (
		flags    listFlags
		category string
		userID   int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List publications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			opts, err := flags.options()
			if err != nil {
				return err
			}
			if category != "" {
				opts.Filter["category"] = category
			}

			var list *client.PublicationList
			if userID > 0 {
				if err := initAuthenticatedClient(); err != nil {
					return err
				}
				list, err = apiClient.Publications().ListByUser(ctx, userID, opts)
			} else {
				list, err = apiClient.Publications().List(ctx, opts)
			}
			if err != nil {
				return fmt.Errorf("failed to list publications: %w", err)
			}
			return renderPublicationList(list, "publications")
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().Int64Var(&userID, "user", 0, "only publications of this user (requires login)")

	return cmd
}

func newPublicationGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <publication-id>",
		Short: "Get publication details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := apiClient.Publications().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get publication: %w", err)
			}
			return renderPublication(pub)
		},
	}
}

func newPublicationCreateCmd() *cobra.Command {
	var (
		req    client.CreatePublicationRequest
		images []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new entry with up to three images",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readImages(images)
			if err != nil {
				return err
			}

			pub, err := apiClient.Publications().Create(context.Background(), req, files...)
			if err != nil {
				return fmt.Errorf("failed to create publication: %w", err)
			}
			return renderPublication(pub)
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "title")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().StringVar(&req.Category, "category", "", "category (default autre)")
	cmd.Flags().StringVar(&req.RefLink, "link", "", "reference link")
	cmd.Flags().Float64Var(&req.Rating, "rating", 0, "rating")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image file (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("link")

	return cmd
}

func newPublicationUpdateCmd() *cobra.Command {
	var (
		title, description, category, link string
		rating                             float64
		images                             []string
	)

	cmd := &cobra.Command{
		Use:   "update <publication-id>",
		Short: "Modify one of your publications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.UpdatePublicationRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("category") {
				req.Category = &category
			}
			if cmd.Flags().Changed("link") {
				req.RefLink = &link
			}
			if cmd.Flags().Changed("rating") {
				req.Rating = &rating
			}

			files, err := readImages(images)
			if err != nil {
				return err
			}

			pub, err := apiClient.Publications().Update(context.Background(), args[0], req, files...)
			if err != nil {
				return fmt.Errorf("failed to update publication: %w", err)
			}
			return renderPublication(pub)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&link, "link", "", "reference link")
	cmd.Flags().Float64Var(&rating, "rating", 0, "rating")
	cmd.Flags().StringArrayVar(&images, "image", nil, "replacement image file (repeatable)")

	return cmd
}

func newPublicationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <publication-id>",
		Short: "Delete one of your publications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Publications().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete publication: %w", err)
			}

			fmt.Fprintln(out, "Publication deleted successfully")
			return nil
		},
	}
}

func readImages(paths []string) ([]client.Image, error) {
	images := make([]client.Image, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		images = append(images, client.Image{Name: filepath.Base(path), Data: data})
	}
	return images, nil
}

func renderPublicationList(list *client.PublicationList, noun string) error {
	if getOutputFormat() != "table" {
		return printOutput(list.Items)
	}

	t := NewTable("ID", "TITLE", "CATEGORY", "RATING", "IMAGES", "CREATED")
	for _, p := range list.Items {
		t.AddRow(
			p.ID,
			truncate(p.Title, 40),
			p.Category,
			formatRating(p.Rating),
			fmt.Sprintf("%d", len(p.Images)),
			formatDate(p.CreatedAt),
		)
	}
	t.Render()
	fmt.Fprintf(out, "\nPage %d of %d, showing %d of %d %s\n",
		list.Page, list.TotalPages, list.Results, list.TotalResults, noun)
	return nil
}

func renderPublication(p *client.Publication) error {
	if getOutputFormat() != "table" {
		return printOutput(p)
	}

	fmt.Fprintf(out, "ID:          %s\n", p.ID)
	fmt.Fprintf(out, "Title:       %s\n", p.Title)
	fmt.Fprintf(out, "Slug:        %s\n", p.Slug)
	fmt.Fprintf(out, "Category:    %s\n", p.Category)
	fmt.Fprintf(out, "Rating:      %s\n", formatRating(p.Rating))
	fmt.Fprintf(out, "Link:        %s\n", p.RefLink)
	fmt.Fprintf(out, "Created:     %s\n", formatDate(p.CreatedAt))
	if p.Owner != nil {
		owner := fmt.Sprintf("%d", p.Owner.ID)
		if p.Owner.Username != "" {
			owner = p.Owner.Username + " (" + owner + ")"
		}
		fmt.Fprintf(out, "Owner:       %s\n", owner)
	}
	if len(p.Images) > 0 {
		fmt.Fprintln(out, "Images:")
		for _, img := range p.Images {
			fmt.Fprintf(out, "  %s\n", img)
		}
	}
	fmt.Fprintf(out, "\n%s\n", p.Description)
	return nil
}
