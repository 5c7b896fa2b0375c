package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/dot"
	"github.com/matzehuels/storyfold/pkg/graph"
)

// Render generates artifacts for a pathway in every requested format.
// SVG and PNG rendering go through Graphviz, so the context bounds them.
func Render(ctx context.Context, pathway *causal.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	dotOpts := dot.Options{
		EdgeLabels:     opts.EdgeLabels,
		HideUnderlying: opts.HideUnderlying,
		Ranksep:        opts.Ranksep,
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot.BuildDOT(pathway, dotOpts))
		case FormatJSON:
			data, err := graph.MarshalGraph(pathway)
			if err != nil {
				return nil, fmt.Errorf("marshal pathway: %w", err)
			}
			artifacts[format] = data
		case FormatSVG:
			data, err := dot.RenderSVG(ctx, dot.BuildDOT(pathway, dotOpts))
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := dot.RenderPNG(ctx, dot.BuildDOT(pathway, dotOpts))
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return artifacts, nil
}
