// Package trace reads, writes and replays allocation traces in the text
// format used by the classic malloc-lab driver.
//
// # Format
//
// A trace starts with four integers (suggested heap size, number of ids,
// number of operations, weight) followed by one operation per line:
//
//	a <id> <size>   allocate size bytes and bind the block to id
//	r <id> <size>   reallocate the block bound to id
//	f <id>          free the block bound to id
//
// Files ending in .gz, .zst or .lz4 are decompressed transparently by Open
// and compressed by Save.
//
// # Replay
//
// Replay drives an allocator through a trace. Every payload is filled with a
// pattern derived from its id and checked before it is freed or moved, and
// every new block is checked against all live blocks for overlap, so a
// broken allocator is caught at the first operation that exposes it.
package trace
