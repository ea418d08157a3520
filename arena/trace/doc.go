// Package trace parses allocation traces and replays them against an
// allocator with correctness checks.
//
// A trace is a text file with a four-line header (suggested heap size, id
// count, op count, weight) followed by one op per line: "a id bytes" to
// allocate, "r id bytes" to reallocate and "f id" to free. Ids name
// allocations, not addresses, so the same trace runs against any allocator.
//
// Replay checks each returned payload for alignment, capacity and overlap
// with other live payloads, and fills it with an id-specific byte pattern that
// must survive until the id is freed, including across reallocations. It
// reports peak utilization (largest live byte count over final heap size) and
// throughput.
//
// Generate produces random valid traces for stress runs; Write serializes a
// trace in the format Parse reads.
package trace
