package commands

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// bareSourceMap is the --sourcemap value when the flag is given without a path.
const bareSourceMap = "<output>.map"

func (c *CLI) newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle [entry-or-glob...] [output-file]",
		Short: "Bundle entry modules and everything they import",
		Long: `Bundle resolves every import reachable from the entries, transforms each
module once and writes a single bundle. With two or more arguments the last
one is the output file. Options not given on the command line are read from
the configuration file when it exists.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions(cmd)
			if err != nil {
				return err
			}
			if err := checkParallelArg(cmd.Flags(), args); err != nil {
				return err
			}
			if err := applyArgs(opts, args); err != nil {
				return err
			}
			if err := applyFlags(opts, cmd.Flags()); err != nil {
				return err
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose || isTerminal(cmd.ErrOrStderr()) {
				c.app.WithProgress(cmd.ErrOrStderr())
			}

			summary, err := c.app.Bundle(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), summary)
			if summary.Degraded() {
				return zerr.With(zerr.Wrap(domain.ErrBuildDegraded, "bundle written"), "dropped", len(summary.Dropped))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntP("parallel", "p", 0, "Number of workers, given as --parallel=N (bare flag uses every CPU)")
	f.Lookup("parallel").NoOptDefVal = "0"
	f.Bool("tree-shaking", false, "Drop modules no entry can reach")
	f.Bool("code-splitting", false, "Move imported modules into separately loaded chunks")
	f.StringArray("split", nil, "Only split import targets matching this root-relative glob (repeatable)")
	f.String("sourcemap", "", "Write a source map (bare flag writes <output>.map)")
	f.Lookup("sourcemap").NoOptDefVal = bareSourceMap
	f.String("sourcemap-mode", "", "Source map variant: standard, detailed or compressed")
	f.String("cache-file", "", "Persist the transform cache to this file")
	f.StringArray("include", nil, "Extra module, glob or directory to bundle (repeatable)")
	f.String("root", "", "Project root; no module may resolve outside it")
	f.StringArray("search-path", nil, "Directory searched for bare references (repeatable)")
	f.StringSlice("extensions", nil, "Fallback extensions tried in order")
	f.Bool("minify", false, "Minify JavaScript and CSS with esbuild")
	f.Bool("strip-types", false, "Strip TypeScript annotations with esbuild")
	f.String("exec", "", "Pipe every module through this shell command ({path} is the module path)")
	f.Bool("continue-on-error", false, "Keep processing modules after a failure")
	return cmd
}

// loadOptions reads the config file. An explicit --config must exist.
func (c *CLI) loadOptions(cmd *cobra.Command) (*domain.BuildOptions, error) {
	path, _ := cmd.Flags().GetString("config")
	return c.app.LoadConfig(path, cmd.Flags().Changed("config"))
}

// applyArgs overrides entries and output with positional arguments, which
// are taken relative to the working directory.
func applyArgs(opts *domain.BuildOptions, args []string) error {
	if len(args) == 0 {
		return nil
	}
	entries := args
	if len(args) > 1 {
		entries = args[:len(args)-1]
		output, err := filepath.Abs(args[len(args)-1])
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to make path absolute"), "path", args[len(args)-1])
		}
		opts.Output = output
	}

	opts.Entries = make([]string, 0, len(entries))
	for _, e := range entries {
		abs, err := filepath.Abs(e)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to make path absolute"), "path", e)
		}
		opts.Entries = append(opts.Entries, abs)
	}
	return nil
}

// checkParallelArg rejects "--parallel N": the flag value is optional, so N
// would otherwise be taken as an entry.
func checkParallelArg(f *pflag.FlagSet, args []string) error {
	if !f.Changed("parallel") || len(args) == 0 {
		return nil
	}
	if n, _ := f.GetInt("parallel"); n != 0 {
		return nil
	}
	if _, err := strconv.Atoi(args[0]); err != nil {
		return nil
	}
	err := zerr.With(zerr.Wrap(domain.ErrInvalidOption, "worker count must be given as --parallel=N"), "argument", args[0])
	return zerr.With(err, "field", "parallel")
}

// applyFlags overrides opts with every flag set on the command line.
func applyFlags(opts *domain.BuildOptions, f *pflag.FlagSet) error {
	if f.Changed("parallel") {
		opts.Workers, _ = f.GetInt("parallel")
	}
	if f.Changed("tree-shaking") {
		opts.TreeShaking, _ = f.GetBool("tree-shaking")
	}
	if f.Changed("code-splitting") {
		opts.CodeSplitting, _ = f.GetBool("code-splitting")
	}
	if f.Changed("split") {
		opts.SplitPatterns, _ = f.GetStringArray("split")
	}
	if f.Changed("sourcemap-mode") {
		raw, _ := f.GetString("sourcemap-mode")
		mode, err := domain.ParseSourceMapMode(raw)
		if err != nil {
			return err
		}
		opts.SourceMapMode = mode
	}
	if f.Changed("cache-file") {
		opts.CacheFile, _ = f.GetString("cache-file")
	}
	if f.Changed("include") {
		opts.Includes, _ = f.GetStringArray("include")
	}
	if f.Changed("root") {
		opts.Root, _ = f.GetString("root")
	}
	if f.Changed("search-path") {
		opts.SearchPaths, _ = f.GetStringArray("search-path")
	}
	if f.Changed("extensions") {
		opts.Extensions, _ = f.GetStringSlice("extensions")
	}
	if f.Changed("minify") {
		opts.Minify, _ = f.GetBool("minify")
	}
	if f.Changed("strip-types") {
		opts.StripTypes, _ = f.GetBool("strip-types")
	}
	if f.Changed("exec") {
		opts.Exec, _ = f.GetString("exec")
	}
	if f.Changed("continue-on-error") {
		opts.ContinueOnError, _ = f.GetBool("continue-on-error")
	}
	verbose, _ := f.GetBool("verbose")
	opts.Verbose = opts.Verbose || verbose

	// Resolved last so a bare flag follows the final output path.
	if f.Changed("sourcemap") {
		path, _ := f.GetString("sourcemap")
		if path == bareSourceMap {
			path = opts.Output + ".map"
		}
		opts.SourceMap = path
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
