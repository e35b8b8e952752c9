package fastcdc

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// ChunkData is one chunk cut from a stream by StreamChunker or
// AsyncStreamChunker, with its position converted to absolute stream
// coordinates and its bytes copied out of the internal buffer.
type ChunkData struct {
	// Hash is the gear fingerprint at the chunk's cut point.
	Hash uint64

	// Offset is the chunk's starting position in the stream.
	Offset uint64

	// Length is the chunk's size in bytes, always len(Data).
	Length uint32

	// Data holds the chunk's bytes. The slice is owned by the caller and
	// stays valid after the next call to Next.
	Data []byte
}

// StreamChunker cuts a stream read from an io.Reader into
// content-defined chunks. It owns a single buffer of exactly maxSize
// bytes: each Next fills the buffer from the source, cuts one chunk and
// drains it. Memory use is therefore flat regardless of stream length.
//
// Not safe for concurrent use.
type StreamChunker struct {
	inner  *Chunker
	source io.Reader

	buffer    []byte // capacity fixed at maxSize
	length    int    // valid bytes at the front of buffer
	processed uint64 // absolute stream offset of buffer[0]
	eof       bool   // source reported end of stream
}

// NewStreamChunker creates a StreamChunker reading from source with the
// given chunking parameters. Accepts the same options as NewChunker.
func NewStreamChunker(source io.Reader, minSize, avgSize, maxSize uint32, opts ...Option) (*StreamChunker, error) {
	inner, err := NewChunker(minSize, avgSize, maxSize, opts...)
	if err != nil {
		return nil, err
	}

	return &StreamChunker{
		inner:  inner,
		source: source,
		buffer: make([]byte, maxSize),
	}, nil
}

// Reset rebinds the StreamChunker to a new source and clears all
// buffered data and positions. The buffer is reused.
func (s *StreamChunker) Reset(source io.Reader) {
	s.inner.Reset()
	s.source = source
	s.length = 0
	s.processed = 0
	s.eof = false
}

// Next returns the next chunk of the stream. At the end of the stream it
// returns io.EOF; any other error comes from the source and is returned
// unwrapped apart from context.
func (s *StreamChunker) Next() (ChunkData, error) {
	if err := s.fill(); err != nil {
		return ChunkData{}, fmt.Errorf("filling chunk buffer: %w", err)
	}

	return s.cut()
}

// fill tops the buffer up from the source. It reads until the buffer is
// full or the source ends; a partially filled buffer therefore means the
// stream has ended and the detector may force the final cut.
func (s *StreamChunker) fill() error {
	if s.eof || s.length == len(s.buffer) {
		return nil
	}

	n, err := io.ReadFull(s.source, s.buffer[s.length:])
	s.length += n

	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
	default:
		return err
	}

	return nil
}

// cut asks the detector for one boundary in the buffered bytes and
// drains the resulting chunk.
func (s *StreamChunker) cut() (ChunkData, error) {
	if s.length == 0 {
		return ChunkData{}, io.EOF
	}

	// The buffer holds the whole unconsumed tail of the stream once the
	// source ends, so its fill level is exactly the remaining content
	// length and the detector may cut the final short chunk.
	if s.eof {
		s.inner.SetContentLength(uint64(s.length))
	}

	chunk, ok := s.inner.Cut(s.buffer[:s.length])
	if !ok {
		// With a buffer of maxSize bytes the detector always finds a
		// boundary in a full buffer; a miss means the stream ended on an
		// already consumed byte.
		return ChunkData{}, io.EOF
	}

	data, err := s.drain(chunk.Cutpoint)
	if err != nil {
		return ChunkData{}, err
	}

	out := ChunkData{
		Hash:   chunk.Hash,
		Offset: s.processed,
		Length: uint32(len(data)), //nolint:gosec // bounded by maxSize
		Data:   data,
	}
	s.processed += uint64(len(data))

	return out, nil
}

// drain copies the first n buffered bytes out and shifts the remainder
// to the front of the buffer.
func (s *StreamChunker) drain(n int) ([]byte, error) {
	if n > s.length {
		return nil, fmt.Errorf("%w: %d > %d", ErrDrainTooLarge, n, s.length)
	}

	data := make([]byte, n)
	copy(data, s.buffer[:n])

	copy(s.buffer, s.buffer[n:s.length])
	s.length -= n

	return data, nil
}

// All returns the stream's chunks as a sequence, stopping cleanly at the
// end of the stream and yielding any source error as the final element:
//
//	for chunk, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func (s *StreamChunker) All() iter.Seq2[ChunkData, error] {
	return func(yield func(ChunkData, error) bool) {
		for {
			chunk, err := s.Next()
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
func (s *StreamChunker) MinSize() uint32 { return s.inner.MinSize() }

// AvgSize returns the configured average (target) chunk size.
func (s *StreamChunker) AvgSize() uint32 { return s.inner.AvgSize() }

// MaxSize returns the configured maximum chunk size.
func (s *StreamChunker) MaxSize() uint32 { return s.inner.MaxSize() }
