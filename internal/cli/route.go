package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/config"
	"github.com/matzehuels/orthoroute/pkg/diagram"
	"github.com/matzehuels/orthoroute/pkg/pipeline"
)

// routeOpts holds the command-line flags for the route command.
type routeOpts struct {
	output  string   // output file (single format), base path (several), or "-" for stdout
	formats []string // output formats: json, svg, dot, rails
	noCache bool     // bypass the result cache entirely
	refresh bool     // ignore cached entries but store fresh ones
	labels  bool     // list unroutable paths in the SVG footer
	ttl     string   // cache lifetime override
	quiet   bool     // suppress the path table
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var formatsStr string
	opts := routeOpts{}

	cmd := &cobra.Command{
		Use:   "route [file]",
		Short: "Route the connectors of a diagram file",
		Long: `Route reads a diagram (JSON or TOML), draws every path as an orthogonal
polyline and writes the requested formats.

Outputs are named after the input file unless --output is given. With a
single format, --output is the file name; with several it is the base name
and each format adds its own extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output == "-" && len(opts.formats) != 1 {
				return fmt.Errorf("--output - needs exactly one format, got %d", len(opts.formats))
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runRoute(ctx, args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, rails (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-route even when a cached result exists")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "list unroutable paths in SVG output")
	cmd.Flags().StringVar(&opts.ttl, "ttl", "", "cache lifetime (e.g. 1h); defaults to the config value")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the path table")

	return cmd
}

func (c *CLI) runRoute(ctx context.Context, input string, cfg config.Config, opts routeOpts) error {
	logger := loggerFromContext(ctx)

	d, err := diagram.ReadFile(input)
	if err != nil {
		return err
	}
	logger.Debug("loaded diagram", "file", input, "boxes", len(d.Boxes), "paths", len(d.Paths))

	ttl, err := routeTTL(cfg.Cache, opts.ttl)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	toStdout := opts.output == "-"
	var spinner *Spinner
	if !toStdout {
		spinner = newSpinnerWithContext(ctx, "Routing "+filepath.Base(input)+"...")
		spinner.Start()
	}

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, d, pipeline.Options{
		Formats: opts.formats,
		Router:  cfg.Router,
		Labels:  opts.labels,
		Refresh: opts.refresh,
		TTL:     ttl,
		Logger:  logger,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %d paths", res.Stats.Routed))

	if toStdout {
		_, err := os.Stdout.Write(res.Artifacts[opts.formats[0]])
		return err
	}

	printSuccess("Routed %s", filepath.Base(input))
	printStats(res.Stats.Boxes, res.Stats.Routed, res.Stats.Unroutable, res.CacheInfo.RouteHit)
	if !opts.quiet && len(res.Routed.Paths) > 0 {
		printPathTable(res.Routed.Paths)
	}

	outputs := outputPaths(opts.output, input, opts.formats)
	for _, format := range opts.formats {
		if err := writeArtifact(outputs[format], res.Artifacts[format]); err != nil {
			return err
		}
		printFile(outputs[format])
	}

	if res.Stats.Unroutable > 0 {
		printWarning("%d path(s) could not be routed", res.Stats.Unroutable)
	}
	return nil
}

// routeTTL resolves the cache lifetime from a flag override or the config.
func routeTTL(cfg config.Cache, override string) (time.Duration, error) {
	if override == "" {
		return cfg.TTLDuration()
	}
	ttl, err := time.ParseDuration(override)
	if err != nil {
		return 0, fmt.Errorf("invalid --ttl %q: %w", override, err)
	}
	return ttl, nil
}

// =============================================================================
// Output Paths
// =============================================================================

// formatExt maps each output format to its file extension.
var formatExt = map[string]string{
	pipeline.FormatJSON:  ".json",
	pipeline.FormatSVG:   ".svg",
	pipeline.FormatDOT:   ".dot",
	pipeline.FormatRails: ".rails.svg",
}

// outputPaths assigns a file to every format. A single format with an
// explicit output uses it verbatim; otherwise the base path (the output or
// the input without extension) gets one extension per format. A routed JSON
// output derived from the input never overwrites the input itself.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	for _, f := range formats {
		paths[f] = basePath(output, input) + formatExt[f]
	}
	if output == "" {
		if p, ok := paths[pipeline.FormatJSON]; ok && samePath(p, input) {
			paths[pipeline.FormatJSON] = basePath("", input) + ".routed.json"
		}
	}
	return paths
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	for _, ext := range []string{".rails.svg", ".json", ".svg", ".dot"} {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
