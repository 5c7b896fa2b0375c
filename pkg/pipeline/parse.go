package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/causal/rank"
	"github.com/matzehuels/storyfold/pkg/dot"
	"github.com/matzehuels/storyfold/pkg/errors"
)

// Parse reads causal stories from DOT files and assigns ranks.
//
// Stories listed explicitly in opts.Stories are read as given; otherwise
// every .dot file under opts.StoryDir is read in name order. Stories that
// arrive without ranks are ranked under the configured policy.
func Parse(ctx context.Context, opts Options) ([]*causal.Graph, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}

	paths, err := storyPaths(opts)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no story files found in %s", opts.StoryDir)
	}

	policy, err := rank.ParsePolicy(opts.Policy)
	if err != nil {
		return nil, err
	}

	stories := make([]*causal.Graph, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, err := dot.ParseStoryFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), ".dot")
		if err := prepareStory(g, name, policy, opts); err != nil {
			return nil, err
		}
		stories = append(stories, g)
	}

	return stories, nil
}

// ParseSources parses stories from in-memory DOT sources, for callers
// like the API server that receive story text instead of files.
func ParseSources(ctx context.Context, sources []string, opts Options) ([]*causal.Graph, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no stories provided")
	}
	policy, err := rank.ParsePolicy(opts.Policy)
	if err != nil {
		return nil, err
	}

	stories := make([]*causal.Graph, 0, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := fmt.Sprintf("story_%d", i+1)
		g, err := dot.ParseStory(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if err := prepareStory(g, name, policy, opts); err != nil {
			return nil, err
		}
		stories = append(stories, g)
	}

	return stories, nil
}

// prepareStory normalizes one parsed story: provenance, EOI agreement,
// and ranks.
func prepareStory(g *causal.Graph, name string, policy rank.Policy, opts Options) error {
	if len(g.PrevCores) == 0 {
		g.PrevCores = []string{name}
	}
	if opts.EOI != "" {
		if g.EOI != "" && g.EOI != opts.EOI {
			return fmt.Errorf("story %s: eoi %q does not match requested %q", name, g.EOI, opts.EOI)
		}
		g.EOI = opts.EOI
	}
	if needsRanks(g) {
		if err := rank.Assign(g, rank.Options{Policy: policy}); err != nil {
			return fmt.Errorf("rank %s: %w", name, err)
		}
	}
	return nil
}

// storyPaths resolves the input file list. Explicit paths win over the
// directory scan; all paths are checked for traversal sequences before
// anything is opened.
func storyPaths(opts Options) ([]string, error) {
	if len(opts.Stories) > 0 {
		for _, path := range opts.Stories {
			if err := errors.ValidatePath(path); err != nil {
				return nil, err
			}
		}
		return opts.Stories, nil
	}

	if err := errors.ValidatePath(opts.StoryDir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(opts.StoryDir)
	if err != nil {
		return nil, fmt.Errorf("read story dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dot") {
			continue
		}
		// Hidden files (editor swap, dotfiles) never become stories.
		if errors.ValidateStoryFilename(entry.Name()) != nil {
			continue
		}
		paths = append(paths, filepath.Join(opts.StoryDir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// needsRanks reports whether any non-intro node is still unranked.
func needsRanks(g *causal.Graph) bool {
	for _, n := range g.Nodes {
		if !n.Intro && !n.Ranked {
			return true
		}
	}
	return false
}
