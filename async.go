package fastcdc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ContextReader is an io.Reader whose reads honor context cancellation.
// The chunking pipeline itself never blocks; reads are the only place an
// AsyncStreamChunker can wait, so they are the only place a context is
// consulted.
type ContextReader interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// ReaderSource adapts a plain io.Reader to ContextReader. The context is
// checked before each read; a read already in progress is not
// interrupted, matching the usual io.Reader contract.
type ReaderSource struct {
	R io.Reader
}

// ReadContext implements ContextReader.
func (r ReaderSource) ReadContext(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return r.R.Read(p)
}

// AsyncStreamChunker is StreamChunker for sources whose reads can block
// on I/O worth cancelling: network bodies, pipes, rate-limited readers.
// Chunking work between reads runs to completion without checking the
// context.
//
// Not safe for concurrent use.
type AsyncStreamChunker struct {
	inner  *Chunker
	source ContextReader

	buffer    []byte
	length    int
	processed uint64
	eof       bool
}

// NewAsyncStreamChunker creates an AsyncStreamChunker reading from
// source with the given chunking parameters. Accepts the same options as
// NewChunker.
func NewAsyncStreamChunker(source ContextReader, minSize, avgSize, maxSize uint32, opts ...Option) (*AsyncStreamChunker, error) {
	inner, err := NewChunker(minSize, avgSize, maxSize, opts...)
	if err != nil {
		return nil, err
	}

	return &AsyncStreamChunker{
		inner:  inner,
		source: source,
		buffer: make([]byte, maxSize),
	}, nil
}

// Reset rebinds the AsyncStreamChunker to a new source and clears all
// buffered data and positions. The buffer is reused.
func (a *AsyncStreamChunker) Reset(source ContextReader) {
	a.inner.Reset()
	a.source = source
	a.length = 0
	a.processed = 0
	a.eof = false
}

// Next returns the next chunk of the stream, or io.EOF at the end.
// Cancelling ctx aborts a pending read; the chunker is left in an
// undefined position afterwards and should be Reset before reuse.
func (a *AsyncStreamChunker) Next(ctx context.Context) (ChunkData, error) {
	if err := a.fill(ctx); err != nil {
		return ChunkData{}, fmt.Errorf("filling chunk buffer: %w", err)
	}

	return a.cutBuffered()
}

// fill tops the buffer up from the source, reading until the buffer is
// full or the source ends.
func (a *AsyncStreamChunker) fill(ctx context.Context) error {
	for !a.eof && a.length < len(a.buffer) {
		n, err := a.source.ReadContext(ctx, a.buffer[a.length:])
		a.length += n

		switch {
		case err == nil:
			if n == 0 {
				return io.ErrNoProgress
			}
		case errors.Is(err, io.EOF):
			a.eof = true
		default:
			return err
		}
	}

	return nil
}

func (a *AsyncStreamChunker) cutBuffered() (ChunkData, error) {
	if a.length == 0 {
		return ChunkData{}, io.EOF
	}

	if a.eof {
		a.inner.SetContentLength(uint64(a.length))
	}

	chunk, ok := a.inner.Cut(a.buffer[:a.length])
	if !ok {
		return ChunkData{}, io.EOF
	}

	if chunk.Cutpoint > a.length {
		return ChunkData{}, fmt.Errorf("%w: %d > %d", ErrDrainTooLarge, chunk.Cutpoint, a.length)
	}

	data := make([]byte, chunk.Cutpoint)
	copy(data, a.buffer[:chunk.Cutpoint])

	copy(a.buffer, a.buffer[chunk.Cutpoint:a.length])
	a.length -= chunk.Cutpoint

	out := ChunkData{
		Hash:   chunk.Hash,
		Offset: a.processed,
		Length: uint32(len(data)), //nolint:gosec // bounded by maxSize
		Data:   data,
	}
	a.processed += uint64(len(data))

	return out, nil
}

// Stream returns the stream's chunks as a sequence bound to ctx,
// stopping cleanly at the end of the stream and yielding any read or
// cancellation error as the final element.
func (a *AsyncStreamChunker) Stream(ctx context.Context) iter.Seq2[ChunkData, error] {
	return func(yield func(ChunkData, error) bool) {
		for {
			chunk, err := a.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}

			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// MinSize returns the configured minimum chunk size.
func (a *AsyncStreamChunker) MinSize() uint32 { return a.inner.MinSize() }

// AvgSize returns the configured average (target) chunk size.
func (a *AsyncStreamChunker) AvgSize() uint32 { return a.inner.AvgSize() }

// MaxSize returns the configured maximum chunk size.
func (a *AsyncStreamChunker) MaxSize() uint32 { return a.inner.MaxSize() }
