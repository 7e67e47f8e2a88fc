package pathfind

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/ductrouter/pkg/grid"
)

const (
	// StepCost is the cost of one orthogonal move between adjacent cells.
	StepCost = 10

	// DefaultTurnPenalty is charged each time a path switches axis.
	DefaultTurnPenalty = 20

	// DefaultInitialHeading is the axis the first move is compared against.
	DefaultInitialHeading = grid.Vertical
)

// Option configures a search.
type Option func(*config)

type config struct {
	turnPenalty   int
	heading       grid.Orientation
	maxExpansions int
	logger        *log.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		turnPenalty: DefaultTurnPenalty,
		heading:     DefaultInitialHeading,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	return cfg
}

// WithTurnPenalty sets the cost added per change of axis. Negative values
// are treated as zero.
func WithTurnPenalty(p int) Option {
	return func(c *config) { c.turnPenalty = max(p, 0) }
}

// WithInitialHeading sets the axis the first move out of the start cell is
// compared against. grid.NoOrientation makes the first move free in either
// direction.
func WithInitialHeading(o grid.Orientation) Option {
	return func(c *config) { c.heading = o }
}

// WithMaxExpansions bounds the number of cells the search may expand before
// giving up with errors.ErrCodeExhausted. Zero means unlimited.
func WithMaxExpansions(n int) Option {
	return func(c *config) { c.maxExpansions = max(n, 0) }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}
