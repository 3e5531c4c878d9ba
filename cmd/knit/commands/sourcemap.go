package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newSourceMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sourcemap",
		Short: "Validate, merge and compress source maps",
	}
	cmd.AddCommand(c.newSourceMapValidateCmd())
	cmd.AddCommand(c.newSourceMapMergeCmd())
	cmd.AddCommand(c.newSourceMapCompressCmd())
	return cmd
}

func (c *CLI) newSourceMapValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a file is a well-formed source map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.app.ValidateSourceMap(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid source map (version %d, %d sources)\n",
				args[0], m.Version, len(m.Sources))
			return nil
		},
	}
}

func (c *CLI) newSourceMapMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge -o <out> <in>...",
		Short: "Merge source maps into one document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			file, _ := cmd.Flags().GetString("file")
			m, err := c.app.MergeSourceMaps(out, file, args)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "merged %d maps into %s (%d sources)\n", len(args), out, len(m.Sources))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Merged source map path")
	cmd.Flags().String("file", "", "Value of the merged map's file field (default merged.js)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *CLI) newSourceMapCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress [-o <out>] <in>",
		Short: "Collapse runs of empty mapping groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = args[0]
			}
			if _, err := c.app.CompressSourceMap(args[0], out); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Compressed source map path (default overwrites the input)")
	return cmd
}
