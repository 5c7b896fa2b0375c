package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyfold/pkg/pipeline"
)

// newFoldCmd creates the fold command, which runs the full
// parse, fold, and render pipeline over a directory of story files.
func newFoldCmd() *cobra.Command {
	var (
		eoi            string
		policy         string
		rerank         bool
		hideIntro      bool
		ignore         string
		noCovers       bool
		noReduce       bool
		reduceBudget   int
		formats        string
		output         string
		edgeLabels     bool
		hideUnderlying bool
		ranksep        float64
		noCache        bool
		refresh        bool
	)

	cmd := &cobra.Command{
		Use:   "fold <story-dir>",
		Short: "Fold causal stories into a pathway graph",
		Long: `Fold reads every .dot story file in the given directory, ranks the
stories under the chosen placement policy, folds them into a single
weighted pathway graph, and writes the rendered outputs next to the
current directory.

Stories must share one event of interest. Pass --eoi to assert it
explicitly; folding fails if any story disagrees.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, err := newRunner(noCache, logger)
			if err != nil {
				return fmt.Errorf("create runner: %w", err)
			}
			defer runner.Close()

			opts := pipeline.Options{
				StoryDir:       args[0],
				EOI:            eoi,
				Policy:         policy,
				Refresh:        refresh,
				Rerank:         rerank,
				HideIntro:      hideIntro,
				Ignore:         splitCommaList(ignore),
				SkipCovers:     noCovers,
				SkipReduce:     noReduce,
				ReduceBudget:   reduceBudget,
				Formats:        parseFormats(formats),
				EdgeLabels:     edgeLabels,
				HideUnderlying: hideUnderlying,
				Ranksep:        ranksep,
				Logger:         logger,
			}

			spin := newSpinnerWithContext(ctx, "Folding stories...")
			spin.Start()

			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Fold failed: %v", err))
				return err
			}
			spin.StopWithSuccess(fmt.Sprintf("Folded %d stories into pathway for %q",
				result.Stats.StoryCount, result.Pathway.EOI))

			printStats(result.Stats.NodeCount, result.Stats.HyperedgeCount, result.CacheInfo.FoldHit)
			if result.PathwayHash != "" {
				printDetail("Hash: %s", result.PathwayHash)
			}

			for _, format := range opts.Formats {
				data, ok := result.Artifacts[format]
				if !ok {
					continue
				}
				path := output + "." + format
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}

			printNewline()
			printNextStep("Render to SVG", fmt.Sprintf("storyfold render %s.json -f svg", output))
			return nil
		},
	}

	cmd.Flags().StringVar(&eoi, "eoi", "", "event of interest (default: taken from the stories)")
	cmd.Flags().StringVar(&policy, "policy", pipeline.DefaultPolicy, "rank placement policy (top or bot)")
	cmd.Flags().BoolVar(&rerank, "rerank", false, "recompute pathway ranks from longest paths")
	cmd.Flags().BoolVar(&hideIntro, "hide-intro", false, "drop introduction nodes from the pathway")
	cmd.Flags().StringVar(&ignore, "ignore", "", "comma-separated label substrings to prune")
	cmd.Flags().BoolVar(&noCovers, "no-covers", false, "skip cover hyperedge extraction")
	cmd.Flags().BoolVar(&noReduce, "no-reduce", false, "skip superfluous-edge reduction")
	cmd.Flags().IntVar(&reduceBudget, "reduce-budget", pipeline.DefaultReduceBudget, "path enumeration budget for reduction")
	cmd.Flags().StringVarP(&formats, "format", "f", "dot,json", "comma-separated output formats (dot, json, svg, png)")
	cmd.Flags().StringVarP(&output, "output", "o", "pathway", "output file basename")
	cmd.Flags().BoolVar(&edgeLabels, "edge-labels", false, "annotate edges with their weights")
	cmd.Flags().BoolVar(&hideUnderlying, "hide-underlying", false, "draw cover hyperedges instead of the underlying ones")
	cmd.Flags().Float64Var(&ranksep, "ranksep", 0, "vertical separation between rank rows")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the local result cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refold even when a cached pathway exists")

	return cmd
}
