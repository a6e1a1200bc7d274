package grammar

import "fmt"

// Config is the flat record of scalar settings the caller supplies to the
// engine. All fields are optional; New fills unset fields with the defaults
// below.
type Config struct {
	InputFile     string // Source log (collaborator-owned, informational only)
	TreeFile      string // Emission sink for the tree dump
	ParserFile    string // Emission sink for the grammar program
	TemplatesFile string // Emission sink for the template list

	TimeStampLength int // Bytes peeled as timestamp; -1 disables

	Theta1 float64 // branch-vs-variable frequency floor
	Theta2 float64 // single-pass-word fixed-child confidence floor
	Theta3 float64 // multi-pass-word branch confidence floor
	Theta4 float64 // ending-line ratio that sets `end`
	Theta5 float64 // tail-pruning floor
	Theta6 float64 // trailing-variable-on-fail floor

	Damping float64 // per-depth theta1 inflation factor

	MergeSimilarity            float64 // insert_variables collapse floor
	MergeSubtreesMinSimilarity float64 // branch-merging score floor (0 disables the pass)
	SubtreeMinHeight           int     // subtree discovery minimum height (0 disables the pass)
	ElementListSimilarity      float64 // match_lists Jaccard-like floor

	Delimiters []byte // single-byte delimiter set
	ForceBranch []int  // depths that always branch
	ForceVar    []int  // depths that always become a variable

	Visualize         bool   // emit a Graphviz DOT document alongside the other artifacts
	VisualizationFile string // sink path for the DOT document

	EnableBranchMerging bool // opt-in: off by default
}

// New returns a Config with every unset numeric/slice field filled from
// DefaultConfig. Fields explicitly set by the caller (non-zero) are
// preserved.
func New(overrides Config) Config {
	cfg := DefaultConfig()

	if overrides.InputFile != "" {
		cfg.InputFile = overrides.InputFile
	}
	if overrides.TreeFile != "" {
		cfg.TreeFile = overrides.TreeFile
	}
	if overrides.ParserFile != "" {
		cfg.ParserFile = overrides.ParserFile
	}
	if overrides.TemplatesFile != "" {
		cfg.TemplatesFile = overrides.TemplatesFile
	}
	if overrides.TimeStampLength != 0 {
		cfg.TimeStampLength = overrides.TimeStampLength
	}
	if overrides.Theta1 != 0 {
		cfg.Theta1 = overrides.Theta1
	}
	if overrides.Theta2 != 0 {
		cfg.Theta2 = overrides.Theta2
	}
	if overrides.Theta3 != 0 {
		cfg.Theta3 = overrides.Theta3
	}
	if overrides.Theta4 != 0 {
		cfg.Theta4 = overrides.Theta4
	}
	if overrides.Theta5 != 0 {
		cfg.Theta5 = overrides.Theta5
	}
	if overrides.Theta6 != 0 {
		cfg.Theta6 = overrides.Theta6
	}
	if overrides.Damping != 0 {
		cfg.Damping = overrides.Damping
	}
	if overrides.MergeSimilarity != 0 {
		cfg.MergeSimilarity = overrides.MergeSimilarity
	}
	if overrides.MergeSubtreesMinSimilarity != 0 {
		cfg.MergeSubtreesMinSimilarity = overrides.MergeSubtreesMinSimilarity
	}
	if overrides.SubtreeMinHeight != 0 {
		cfg.SubtreeMinHeight = overrides.SubtreeMinHeight
	}
	if overrides.ElementListSimilarity != 0 {
		cfg.ElementListSimilarity = overrides.ElementListSimilarity
	}
	if len(overrides.Delimiters) != 0 {
		cfg.Delimiters = overrides.Delimiters
	}
	if len(overrides.ForceBranch) != 0 {
		cfg.ForceBranch = overrides.ForceBranch
	}
	if len(overrides.ForceVar) != 0 {
		cfg.ForceVar = overrides.ForceVar
	}
	cfg.Visualize = overrides.Visualize
	if overrides.VisualizationFile != "" {
		cfg.VisualizationFile = overrides.VisualizationFile
	}
	cfg.EnableBranchMerging = overrides.EnableBranchMerging

	return cfg
}

// DefaultConfig mirrors the "mainlog" profile from the reference
// configuration corpus: a syslog-shaped main log with loose branch
// sensitivity and no forced depths.
func DefaultConfig() Config {
	return Config{
		TimeStampLength:             -1,
		Theta1:                      0.05,
		Theta2:                      0.99,
		Theta3:                      0.1,
		Theta4:                      0.0001,
		Theta5:                      0.0001,
		Theta6:                      0.001,
		Damping:                     0.1,
		MergeSimilarity:             0.8,
		MergeSubtreesMinSimilarity:  0,
		SubtreeMinHeight:            0,
		ElementListSimilarity:       0.66,
		Delimiters:                  []byte{' ', '=', '<', '>'},
		ForceBranch:                 nil,
		ForceVar:                    nil,
		Visualize:                   false,
		VisualizationFile:           "",
		EnableBranchMerging:         false,
	}
}

// AuditConfig is the second reference profile: a structured audit log whose
// leading "key=value" prefix behaves very differently at shallow depths, so
// those depths are forced to branch rather than being judged by theta1.
func AuditConfig() Config {
	cfg := DefaultConfig()
	cfg.Theta1 = 0.1
	cfg.Theta2 = 0.95
	cfg.ForceBranch = []int{0, 1, 2}
	cfg.Delimiters = []byte{' ', '=', ':', '<', '>', ','}
	return cfg
}

// Validate reports ErrInvalidConfig when a threshold is out of range or the
// delimiter/timestamp combination is nonsensical
func (c Config) Validate() error {
	thresholds := map[string]float64{
		"theta1": c.Theta1, "theta2": c.Theta2, "theta3": c.Theta3,
		"theta4": c.Theta4, "theta5": c.Theta5, "theta6": c.Theta6,
		"merge_similarity":               c.MergeSimilarity,
		"merge_subtrees_min_similarity":  c.MergeSubtreesMinSimilarity,
		"element_list_similarity":        c.ElementListSimilarity,
	}
	for name, v := range thresholds {
		if v < 0 || v > 1 {
			return newConfigError(name, "must be within [0,1], got %v", v)
		}
	}
	if c.Damping < 0 {
		return newConfigError("damping", "must be non-negative, got %v", c.Damping)
	}
	if c.SubtreeMinHeight < 0 {
		return newConfigError("subtree_min_height", "must be >= 0, got %d", c.SubtreeMinHeight)
	}
	if len(c.Delimiters) == 0 && c.TimeStampLength > 0 {
		return newConfigError("delimiters", "empty delimiter set is incompatible with a positive time_stamp_length")
	}
	seen := make(map[byte]bool, len(c.Delimiters))
	for _, d := range c.Delimiters {
		if seen[d] {
			return newConfigError("delimiters", "duplicate delimiter byte %q", d)
		}
		seen[d] = true
	}
	return nil
}

func (c Config) delimiterSet() map[byte]bool {
	set := make(map[byte]bool, len(c.Delimiters))
	for _, d := range c.Delimiters {
		set[d] = true
	}
	return set
}

func (c Config) isForceBranch(depth int) bool { return containsInt(c.ForceBranch, depth) }
func (c Config) isForceVar(depth int) bool    { return containsInt(c.ForceVar, depth) }

func containsInt(set []int, v int) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

func (c Config) String() string {
	return fmt.Sprintf("Config{theta1=%.4f theta2=%.4f theta3=%.4f theta4=%.4f theta5=%.4f theta6=%.4f damping=%.4f}",
		c.Theta1, c.Theta2, c.Theta3, c.Theta4, c.Theta5, c.Theta6, c.Damping)
}
