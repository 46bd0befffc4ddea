// Package bedrockdb reads and writes Minecraft Bedrock worlds stored in
// LevelDB.
//
// A DB assembles chunks from the per-chunk records of the world database,
// caches them in a sharded LRU and can warm the cache ahead of moving
// viewers. It also exposes the world-wide records: players, level.dat and
// the raw keys, and bulk operations such as deleting every chunk outside
// an area.
//
// The codecs it is built on live in their own packages: stream for byte
// buffers, nbt for tag trees, palette for bit-packed sections, dbkey for
// record keys, chunk for chunk assembly and store for the LevelDB
// collaborator.
package bedrockdb
