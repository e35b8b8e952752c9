// Package fastcdc implements the FastCDC (2020) content-defined chunking
// algorithm with a resumable boundary detector and streaming wrappers.
//
// # Overview
//
// FastCDC divides data streams into variable-size chunks based on
// content rather than fixed boundaries, so an insertion or deletion only
// shifts nearby chunk boundaries instead of every boundary after it.
// This enables efficient deduplication and delta compression.
//
// This implementation offers:
//   - A resumable detector: feed a stream as any sequence of buffers and
//     get the same boundaries as a single scan, with no internal copy
//   - Streaming wrappers over io.Reader and context-aware sources with
//     flat memory use (one buffer of maxSize bytes)
//   - Reference-compatible boundaries: gear table and masks match the
//     canonical FastCDC 2020 implementation bit for bit
//   - Normalized chunking with four selectable levels and optional
//     seeded gear tables
//
// # Quick Start
//
// Streaming API:
//
//	chunker, _ := fastcdc.NewStreamChunker(reader, 4096, 16384, 65535)
//	for {
//	    chunk, err := chunker.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    // Process chunk.Data
//	}
//
// In-memory data:
//
//	chunker, _ := fastcdc.NewChunker(4096, 16384, 65535)
//	chunker.SetContentLength(uint64(len(data)))
//	for chunk := range chunker.Chunks(data) {
//	    // Process data[:chunk.Consumed], advance, repeat
//	}
//
// Resumable low-level API, for data arriving in arbitrary pieces:
//
//	chunker, _ := fastcdc.NewChunker(4096, 16384, 65535)
//	for piece := range pieces {
//	    rest := piece
//	    for {
//	        chunk, ok := chunker.Cut(rest)
//	        if !ok {
//	            break // boundary continues in the next piece
//	        }
//	        rest = rest[chunk.Consumed:]
//	    }
//	}
//
// # Algorithm
//
// The detector uses the Gear rolling hash (shift, add, table lookup per
// byte) with normalized chunking:
//  1. Below the minimum size, bytes feed the hash but no cut is tested
//  2. Up to the average size, a strict mask suppresses early cuts
//  3. Past the average size, a loose mask hurries the cut along
//  4. A cut is forced at the maximum size
//
// Declaring the stream length with SetContentLength additionally forces
// a cut at the end of the data, so a trailing chunk shorter than the
// minimum size is still emitted.
//
// # Thread Safety
//
// Chunkers are single-owner: no instance is safe for concurrent use, but
// separate instances are fully independent. For high-throughput fan-out,
// use ChunkerPool or StreamChunkerPool to recycle instances across
// goroutines.
package fastcdc
