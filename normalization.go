package fastcdc

import "math"

// Normalization selects how strongly cut points are pulled toward the
// average chunk size. Below the average a stricter mask suppresses early
// cuts; past the average a looser mask hurries the cut along. Higher
// levels make chunk sizes more uniform at the cost of weaker
// content sensitivity near edits.
type Normalization uint8

const (
	// Level0 disables normalized chunking: a single mask applies over the
	// whole [minSize, maxSize] range.
	Level0 Normalization = iota

	// Level1 is the default level.
	Level1

	// Level2 pulls sizes closer to the average than Level1.
	Level2

	// Level3 is the strongest normalization. Expect chunk sizes tightly
	// grouped around avgSize; consider widening min/max accordingly.
	Level3
)

// chunkingMasks is the spread-bit mask table from the FastCDC 2020
// paper. Entry i carries exactly i one-bits, so a hash passes
// (hash & masks[i]) == 0 with probability 2^-i. Like the gear table,
// these values are an interoperability contract.
var chunkingMasks = [26]uint64{
	// Entries 0 through 4 are never selected: avgSize >= 256 and the
	// clamped index arithmetic keep the index at 5 or above.
	0, 0, 0, 0, 0,
	0x0000000001804110, // level 3 floor
	0x0000000001803110, // 64 B
	0x0000000018035100, // 128 B
	0x0000001800035300, // 256 B
	0x0000019000353000, // 512 B
	0x0000590003530000, // 1 KiB
	0x0000d90003530000, // 2 KiB
	0x0000d90103530000, // 4 KiB
	0x0000d90303530000, // 8 KiB
	0x0000d90313530000, // 16 KiB
	0x0000d90f03530000, // 32 KiB
	0x0000d90303537000, // 64 KiB
	0x0000d90703537000, // 128 KiB
	0x0000d90707537000, // 256 KiB
	0x0000d91707537000, // 512 KiB
	0x0000d91747537000, // 1 MiB
	0x0000d91767537000, // 2 MiB
	0x0000d93767537000, // 4 MiB
	0x0000d93777537000, // 8 MiB
	0x0000d93777577000, // 16 MiB
	0x0000db3777577000, // level 3 ceiling
}

// normalizedMasks derives the two cut masks and the split point for the
// given average size and normalization level. The split point is the
// chunk length at which the detector switches from maskS to maskL;
// both masks and the split are fixed for the detector's lifetime.
func normalizedMasks(avgSize uint32, level Normalization) (maskS, maskL uint64, normSize uint32) {
	bits := logarithm2(avgSize)
	top := uint32(len(chunkingMasks) - 1)

	// The paper's table tops out at 16 MiB averages; saturate rather
	// than reject sizes that are otherwise in range.
	strict := bits + uint32(level)
	if strict > top {
		strict = top
	}

	loose := bits - uint32(level)
	if loose > top {
		loose = top
	}

	return chunkingMasks[strict], chunkingMasks[loose], avgSize
}

// logarithm2 returns the base-2 logarithm of n, rounded to the nearest
// integer. Matches the reference implementation's rounding so that the
// same avgSize selects the same masks.
func logarithm2(n uint32) uint32 {
	return uint32(math.Round(math.Log2(float64(n))))
}
