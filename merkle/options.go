package merkle

import "runtime"

const (
	// defaultParallelThreshold is the smallest level, counted in parent nodes,
	// that is split across workers.
	defaultParallelThreshold = 1024
)

type BuildOptions struct {
	Algorithm Algorithm
	// Workers bounds the number of goroutines hashing a single level. 1 (or
	// less) hashes every level on the calling goroutine.
	Workers int
	// ParallelThreshold is the minimum number of parents in a level before
	// that level is split across workers.
	ParallelThreshold int
}

type Option func(*BuildOptions)

func WithAlgorithm(alg Algorithm) Option {
	return func(o *BuildOptions) {
		o.Algorithm = alg
	}
}

func WithWorkers(n int) Option {
	return func(o *BuildOptions) {
		o.Workers = n
	}
}

func WithParallelThreshold(n int) Option {
	return func(o *BuildOptions) {
		o.ParallelThreshold = n
	}
}

func newBuildOptions(opts ...Option) BuildOptions {
	o := BuildOptions{
		Algorithm:         DefaultAlgorithm,
		Workers:           runtime.GOMAXPROCS(0),
		ParallelThreshold: defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ParallelThreshold < 1 {
		o.ParallelThreshold = 1
	}
	return o
}
