package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch posts, mirror their images and write page descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.builder.Build(cmd.Context())
			if err != nil {
				app.logger.Error("Build failed", "error", err)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&opts.noIndex, "no-index", false, "skip the image-keys index pass (BUILD_INDEX_IMAGE_KEYS)")
	return cmd
}

func newIndexCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Write the image-keys node listing every referenced image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.close()

			node, err := app.indexer.Run(cmd.Context())
			if err != nil {
				app.logger.Error("Index failed", "error", err)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), node)
		},
	}
}

func newPreviewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <post-id>",
		Short: "Print one post with its bucket images replaced by signed URLs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.close()

			post, report, err := app.previewer.Preview(cmd.Context(), args[0])
			if err != nil {
				app.logger.Error("Preview failed", "post_id", args[0], "error", err)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"post":   post,
				"report": report,
			})
		},
	}
}

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "jamstack-cms %s\n", Version)
			return nil
		},
	}
}
