package fastcdc

import "iter"

// Chunk describes one cut produced by Chunker.Cut. All positions are
// relative to the data passed to the call that produced the chunk; the
// stream wrappers convert them to absolute stream coordinates.
type Chunk struct {
	// Hash is the rolling gear fingerprint at the cut point. It records
	// why the boundary fell where it did; it is not a digest of the
	// chunk's content.
	Hash uint64

	// Offset is zero when the chunk began at the first byte of this
	// call's data. Otherwise it is negative: its magnitude is the number
	// of chunk bytes supplied by earlier calls, i.e. how far back into
	// previously fed buffers the chunk's first byte lies.
	Offset int

	// Cutpoint is the end of the chunk measured from the chunk's first
	// byte, which makes it the chunk's length. Equal to Consumed
	// whenever Offset is zero; in general Cutpoint == Consumed - Offset.
	Cutpoint int

	// Consumed is the number of bytes of this call's data that belong to
	// the chunk. Advance the read cursor by this much and call Cut again
	// on the remainder to find further chunks in the same buffer.
	Consumed int
}

// Chunker finds content-defined chunk boundaries using the FastCDC
// (2020) algorithm. It is resumable: a stream may be fed as any sequence
// of buffers through Cut and the boundaries come out the same as if the
// whole stream were scanned at once, while the Chunker itself never
// buffers data.
//
// A Chunker performs no I/O and never blocks. It is not safe for
// concurrent use: exactly one caller owns it at a time.
type Chunker struct {
	table       [256]uint64 // gear lookup table
	fingerprint uint64      // rolling hash, carried across Cut calls

	// Read-only after construction.
	minSize  uint32
	avgSize  uint32
	maxSize  uint32
	normSize uint32 // chunk length at which maskS hands over to maskL
	maskS    uint64
	maskL    uint64

	// Scan state.
	length        uint32 // bytes scanned into the current, uncut chunk
	processed     uint64 // bytes consumed since construction or Reset
	contentLength uint64 // absolute stream length, when declared
	haveLength    bool
	eof           bool // final forced chunk has been emitted
}

// NewChunker creates a Chunker for the given minimum, average and
// maximum chunk sizes. The default normalization level is Level1; use
// WithNormalization and WithSeed to override the defaults. Returns a
// configuration error naming the violated bound if any size is out of
// range or the sizes are not ordered min ≤ avg ≤ max.
func NewChunker(minSize, avgSize, maxSize uint32, opts ...Option) (*Chunker, error) {
	cfg := defaultConfig(minSize, avgSize, maxSize)
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return newChunkerWithConfig(&cfg), nil
}

// newChunkerWithConfig builds a Chunker from an already validated
// config.
func newChunkerWithConfig(cfg *config) *Chunker {
	maskS, maskL, normSize := normalizedMasks(cfg.avgSize, cfg.level)

	return &Chunker{
		table:    generateTable(cfg.seed),
		minSize:  cfg.minSize,
		avgSize:  cfg.avgSize,
		maxSize:  cfg.maxSize,
		normSize: normSize,
		maskS:    maskS,
		maskL:    maskL,
	}
}

// SetContentLength declares that exactly n more bytes will be fed
// through Cut. Without it a trailing chunk shorter than minSize is never
// emitted, because the detector cannot tell the end of a buffer from a
// pause in the stream. Called before the first Cut, n is simply the
// total stream length.
func (c *Chunker) SetContentLength(n uint64) {
	c.contentLength = c.processed + n
	c.haveLength = true
}

// Reset returns the Chunker to its initial state so it can scan a new
// stream. The configuration and gear table are kept.
func (c *Chunker) Reset() {
	c.fingerprint = 0
	c.length = 0
	c.processed = 0
	c.contentLength = 0
	c.haveLength = false
	c.eof = false
}

// Cut scans data for the next chunk boundary, continuing the chunk left
// unfinished by the previous call. It returns at most one chunk; slice
// data by the chunk's Consumed count and call Cut again to find further
// boundaries in the same buffer. When no boundary exists in data, Cut
// returns false and retains all scan state, exactly as if the next
// call's bytes had been appended to this call's.
//
// On a mask match the matching byte is not part of the chunk: it is
// rescanned as the first byte of the next chunk, though its hash update
// is included in the reported Hash. A boundary is also forced at
// maxSize, and at the end of the declared content length (see
// SetContentLength) even if the tail is shorter than minSize; forced
// boundaries include their last byte.
func (c *Chunker) Cut(data []byte) (Chunk, bool) {
	// Once the declared content has been cut, further data belongs to no
	// stream this Chunker knows about.
	if c.eof {
		return Chunk{}, false
	}

	n := len(data)
	// Whether data reaches the declared end of the stream.
	final := c.haveLength && c.processed+uint64(n) >= c.contentLength

	// Capture hot state into locals for the scan loops.
	fp := c.fingerprint
	length := int(c.length)
	minSize := int(c.minSize)
	normSize := int(c.normSize)
	maxSize := int(c.maxSize)
	maskS := c.maskS
	maskL := c.maskL

	i := 0

	// The first minSize bytes advance the hash but are never cut-tested:
	// no chunk may end in this region, so testing would only cost time
	// and produce undersized chunks. The first tested byte is the one
	// whose exclusion leaves a chunk of exactly minSize.
	if skip := minSize - length; skip > 0 {
		if skip > n {
			skip = n
		}

		for ; i < skip; i++ {
			fp = (fp << 1) + c.table[data[i]]
		}

		length += skip
	}

	// Normalized region: the stricter mask applies while the chunk left
	// by a cut would still be shorter than the split point. A match cuts
	// before the matching byte, which starts the next chunk.
	for ; i < n && length < normSize; i++ {
		fp = (fp << 1) + c.table[data[i]]
		length++

		if fp&maskS == 0 {
			return c.cut(fp, length-1, i), true
		}
	}

	// The split point can coincide with maxSize when avgSize == maxSize.
	if length >= maxSize {
		return c.cut(fp, length, i), true
	}

	// Past the split point: the looser mask, bounded by the forced cut
	// at maxSize. The forced cut keeps its last byte.
	for ; i < n; i++ {
		fp = (fp << 1) + c.table[data[i]]
		length++

		if fp&maskL == 0 {
			return c.cut(fp, length-1, i), true
		}

		if length >= maxSize {
			return c.cut(fp, length, i+1), true
		}
	}

	// Data exhausted without a boundary. If this is the end of the
	// declared content, the remainder becomes the final chunk regardless
	// of minSize.
	if final && length > 0 {
		c.eof = true

		return c.cut(fp, length, n), true
	}

	c.fingerprint = fp
	c.length = uint32(length) //nolint:gosec // length < maxSize ≤ 2^30
	c.processed += uint64(n)

	return Chunk{}, false
}

// cut finalizes the current chunk at the given length, having consumed
// the given number of bytes from this call's data, and resets the scan
// state for the next chunk.
func (c *Chunker) cut(fp uint64, length, consumed int) Chunk {
	carried := length - consumed

	c.fingerprint = 0
	c.length = 0
	c.processed += uint64(consumed)

	return Chunk{
		Hash:     fp,
		Offset:   -carried,
		Cutpoint: length,
		Consumed: consumed,
	}
}

// Chunks returns a lazy sequence of the chunks in one complete in-memory
// buffer, advancing an internal cursor by each chunk's Consumed count.
// Iteration mutates the Chunker; to rescan, construct a fresh one. As
// with Cut, declare the content length first if the trailing bytes
// should be emitted as a final chunk:
//
//	chunker.SetContentLength(uint64(len(data)))
//	for chunk := range chunker.Chunks(data) {
//	    ...
//	}
func (c *Chunker) Chunks(data []byte) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		cursor := 0
		for cursor < len(data) {
			chunk, ok := c.Cut(data[cursor:])
			if !ok {
				return
			}

			cursor += chunk.Consumed

			if !yield(chunk) {
				return
			}
		}
	}
}

// MinSize returns the configured minimum chunk size.
func (c *Chunker) MinSize() uint32 { return c.minSize }

// AvgSize returns the configured average (target) chunk size.
func (c *Chunker) AvgSize() uint32 { return c.avgSize }

// MaxSize returns the configured maximum chunk size.
func (c *Chunker) MaxSize() uint32 { return c.maxSize }

// Processed returns the number of bytes consumed since construction or
// the last Reset. After a cut this is the absolute stream position of
// the cut point.
func (c *Chunker) Processed() uint64 { return c.processed }
