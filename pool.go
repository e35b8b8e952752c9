package fastcdc

import (
	"io"
	"sync"
)

// ChunkerPool is a pool of Chunker instances for reuse in high-throughput
// scenarios. It reduces allocations by recycling chunkers instead of
// creating new ones.
type ChunkerPool struct {
	pool sync.Pool
	cfg  config
}

// NewChunkerPool creates a new ChunkerPool. All chunkers created from
// this pool share the given size parameters and options.
func NewChunkerPool(minSize, avgSize, maxSize uint32, opts ...Option) (*ChunkerPool, error) {
	cfg := defaultConfig(minSize, avgSize, maxSize)
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &ChunkerPool{cfg: cfg}, nil
}

// Get retrieves a Chunker from the pool, or creates a new one if the
// pool is empty. The chunker is reset and ready to scan a new stream.
func (p *ChunkerPool) Get() *Chunker {
	if v := p.pool.Get(); v != nil {
		chunker := v.(*Chunker)
		chunker.Reset()

		return chunker
	}

	return newChunkerWithConfig(&p.cfg)
}

// Put returns a Chunker to the pool for reuse. The chunker must not be
// used after being returned.
func (p *ChunkerPool) Put(c *Chunker) {
	c.Reset()
	p.pool.Put(c)
}

// StreamChunkerPool is a pool of StreamChunker instances. Reusing a
// StreamChunker saves the maxSize buffer allocation on top of the
// detector itself.
type StreamChunkerPool struct {
	pool sync.Pool
	cfg  config
}

// NewStreamChunkerPool creates a new StreamChunkerPool. All stream
// chunkers created from this pool share the given size parameters and
// options.
func NewStreamChunkerPool(minSize, avgSize, maxSize uint32, opts ...Option) (*StreamChunkerPool, error) {
	cfg := defaultConfig(minSize, avgSize, maxSize)
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &StreamChunkerPool{cfg: cfg}, nil
}

// Get retrieves a StreamChunker from the pool, or creates a new one if
// the pool is empty, bound to the given reader and ready to use.
func (p *StreamChunkerPool) Get(r io.Reader) *StreamChunker {
	if v := p.pool.Get(); v != nil {
		chunker := v.(*StreamChunker)
		chunker.Reset(r)

		return chunker
	}

	return &StreamChunker{
		inner:  newChunkerWithConfig(&p.cfg),
		source: r,
		buffer: make([]byte, p.cfg.maxSize),
	}
}

// Put returns a StreamChunker to the pool for reuse. The chunker must
// not be used after being returned.
func (p *StreamChunkerPool) Put(s *StreamChunker) {
	// Clear the reader to avoid holding references
	s.Reset(nil)
	p.pool.Put(s)
}
