package format

// Alignment utilities for block sizing.

// AlignUp returns n rounded up to the next Alignment boundary.
//
// Example:
//
//	AlignUp(1)  = 16
//	AlignUp(16) = 16
//	AlignUp(17) = 32
func AlignUp(n int) int {
	return (n + AlignmentMask) &^ AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize returns the block size needed to serve a request of n payload
// bytes. Requests up to SmallRequest get a MinBlockSize block. Anything larger
// gets Alignment * ceil((n + Overhead + AlignmentMask) / Alignment), which
// leaves at least one spare alignment unit unless n+Overhead+AlignmentMask is
// already a multiple of Alignment.
//
// Example:
//
//	AdjustedSize(1)  = 16
//	AdjustedSize(8)  = 16
//	AdjustedSize(9)  = 32
//	AdjustedSize(20) = 48
//	AdjustedSize(40) = 64
func AdjustedSize(n int) int {
	if n <= SmallRequest {
		return MinBlockSize
	}
	return Alignment * ceilDiv(n+Overhead+AlignmentMask, Alignment)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// PayloadCapacity returns the number of usable payload bytes in a used block
// of the given size.
func PayloadCapacity(blockSize int) int {
	return blockSize - Overhead
}
