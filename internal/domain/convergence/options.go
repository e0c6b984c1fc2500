package convergence

import "github.com/okian/duelrank/pkg/logger"

// Option configures a Monitor.
type Option func(*Monitor)

// WithRankWindow sets how many trailing ranked orders are compared for
// rank stability.
func WithRankWindow(n int) Option {
	return func(m *Monitor) {
		if n > 1 {
			m.windowSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}
