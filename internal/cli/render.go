package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyfold/pkg/graph"
	"github.com/matzehuels/storyfold/pkg/pipeline"
)

// newRenderCmd creates the render command, which renders an already
// folded pathway from its JSON serialization without refolding.
func newRenderCmd() *cobra.Command {
	var (
		formats        string
		output         string
		edgeLabels     bool
		hideUnderlying bool
		ranksep        float64
		noCache        bool
	)

	cmd := &cobra.Command{
		Use:   "render <pathway.json>",
		Short: "Render a folded pathway to DOT, SVG, or PNG",
		Long: `Render reads a pathway previously written by "storyfold fold" and
generates the requested output formats. Folding is not repeated, so
render options can be explored cheaply on large pathways.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			pathway, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return fmt.Errorf("read pathway: %w", err)
			}

			runner, err := newRunner(noCache, logger)
			if err != nil {
				return fmt.Errorf("create runner: %w", err)
			}
			defer runner.Close()

			opts := pipeline.Options{
				Formats:        parseFormats(formats),
				EdgeLabels:     edgeLabels,
				HideUnderlying: hideUnderlying,
				Ranksep:        ranksep,
				Logger:         logger,
			}

			artifacts, cached, err := runner.RenderWithCacheInfo(ctx, pathway, opts)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}

			base := output
			if base == "" {
				base = outputBase(args[0])
			}

			printStats(len(pathway.Nodes), len(pathway.Hyperedges), cached)
			for _, format := range opts.Formats {
				data, ok := artifacts[format]
				if !ok {
					continue
				}
				path := base + "." + format
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}

			prog.done(fmt.Sprintf("Rendered %d formats", len(artifacts)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "svg", "comma-separated output formats (dot, json, svg, png)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file basename (default: input name)")
	cmd.Flags().BoolVar(&edgeLabels, "edge-labels", false, "annotate edges with their weights")
	cmd.Flags().BoolVar(&hideUnderlying, "hide-underlying", false, "draw cover hyperedges instead of the underlying ones")
	cmd.Flags().Float64Var(&ranksep, "ranksep", 0, "vertical separation between rank rows")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the local result cache")

	return cmd
}

// outputBase strips the extension from an input path to derive the
// default output basename.
func outputBase(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
