package pipeline

import (
	"log/slog"
	"runtime"

	"github.com/goliatone/go-fmschema/pkg/directive"
	"github.com/goliatone/go-fmschema/pkg/expr"
)

var defaultOrders = directive.NewOrderCache()

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEvaluator sets the expression evaluator used by jmespath-filter and
// derived-from. Defaults to expr.NewJMESPath().
func WithEvaluator(evaluator expr.Evaluator) Option {
	return func(p *Pipeline) {
		if evaluator != nil {
			p.evaluator = evaluator
		}
	}
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWorkers bounds how many documents ProcessBatch handles at once.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithBucketParallelism bounds how many instances of one stage bucket run at
// once. A value of 1 runs instances sequentially.
func WithBucketParallelism(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

// WithOrderCache shares a processing order cache across pipelines.
func WithOrderCache(cache *directive.OrderCache) Option {
	return func(p *Pipeline) {
		if cache != nil {
			p.orders = cache
		}
	}
}

func defaults(p *Pipeline) {
	p.evaluator = expr.NewJMESPath()
	p.logger = slog.New(slog.DiscardHandler)
	p.workers = runtime.GOMAXPROCS(0)
	p.parallelism = runtime.GOMAXPROCS(0)
	p.orders = defaultOrders
}
