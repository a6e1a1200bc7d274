package grammar

import (
	"fmt"

	"github.com/google/uuid"
)

// Engine orchestrates the full pipeline: tokenize, build, refine, emit. It
// is single-threaded, batch and synchronous: a fresh Arena is allocated per
// Run and there is no shared mutable state across invocations.
type Engine struct {
	cfg        Config
	logger     Logger
	classifier *Classifier
}

// NewEngine validates cfg and returns a ready Engine, or ErrInvalidConfig.
func NewEngine(cfg Config, logger Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Engine{cfg: cfg, logger: logger, classifier: NewClassifier()}, nil
}

// Result bundles every artifact the Emitter produces for one Run, plus the
// supplemented Stats and any soft warnings (e.g. input that tokenized to
// nothing usable).
type Result struct {
	RunID         string
	Arena         *Arena
	Root          NodeRef
	TreeDump      string
	Templates     []string
	Clusters      []Cluster
	Program       string
	Stats         Stats
	Visualization string
	Warnings      []error
}

// Run executes the full pipeline over raw input lines and returns every
// emitted artifact.
func (e *Engine) Run(rawLines [][]byte) (*Result, error) {
	runID := uuid.NewString()
	e.logger.Info("engine: run start", "run_id", runID, "lines", len(rawLines))

	delims := e.cfg.delimiterSet()
	tokenized := TokenizeAll(rawLines, e.cfg.TimeStampLength, delims)

	var warnings []error
	if len(tokenized) == 0 {
		warnings = append(warnings, ErrNoInput)
		e.logger.Info("engine: no usable input lines", "run_id", runID)
	}

	arena := NewArena()
	builder := NewBuilder(e.cfg, arena, e.classifier, e.logger)
	root := builder.Build(tokenized)
	e.logger.Debug("engine: build complete", "run_id", runID, "nodes", len(arena.nodes))

	if err := e.runPasses(arena, root, len(tokenized)); err != nil {
		return nil, err
	}

	emitter := NewEmitter(arena, e.cfg)
	program := NewProgramEmitter(arena, e.cfg)

	result := &Result{
		RunID:     runID,
		Arena:     arena,
		Root:      root,
		TreeDump:  emitter.TreeDump(root),
		Templates: emitter.Templates(root),
		Clusters:  emitter.Clusters(root, builder.EndingLines()),
		Program:   program.Emit(root),
		Stats:     emitter.ComputeStats(root),
		Warnings:  warnings,
	}
	if e.cfg.Visualize {
		result.Visualization = emitter.Visualize(root)
	}

	e.logger.Info("engine: run complete", "run_id", runID, "templates", len(result.Templates))
	return result, nil
}

// runPasses drives the ordered refinement passes, running each pass's
// consistency check immediately afterward so an invariant violation is
// attributed to the pass that introduced it.
func (e *Engine) runPasses(arena *Arena, root NodeRef, inputLines int) error {
	type step struct {
		name string
		run  func()
	}
	steps := []step{
		{"sort_children", func() { SortChildren(arena, root) }},
		{"insert_variables", func() { InsertVariables(arena, e.cfg, root) }},
	}
	if e.cfg.EnableBranchMerging {
		steps = append(steps, step{"merge_branches", func() {
			MergeBranches(arena, e.cfg.MergeSubtreesMinSimilarity, root)
		}})
	}
	steps = append(steps,
		step{"insert_lists", func() { InsertLists(arena, root) }},
		step{"match_lists", func() { MatchLists(arena, root, e.cfg.ElementListSimilarity) }},
	)
	if e.cfg.SubtreeMinHeight > 0 {
		steps = append(steps, step{"discover_subtrees", func() {
			DiscoverSubtrees(arena, root, e.cfg.SubtreeMinHeight)
		}})
	}
	steps = append(steps,
		step{"sort_children_final", func() { SortChildren(arena, root) }},
		step{"aggregate_sequences", func() { AggregateSequences(arena, root) }},
	)

	for _, s := range steps {
		s.run()
		if err := CheckConsistency(arena, root, inputLines, s.name); err != nil {
			e.logger.Info("engine: invariant violation", "pass", s.name, "error", err)
			return fmt.Errorf("pass %s: %w", s.name, err)
		}
		e.logger.Debug("engine: pass complete", "pass", s.name)
	}
	return nil
}
