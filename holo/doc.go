// Package holo implements the conductor's content identifiers: 39-byte
// HoloHashes (type prefix, blake2b-256 digest, DHT location) and the
// CellId pair that names a running instance.
//
// Serialized hashes use the same form as the conductor tooling: a "u"
// multibase marker followed by unpadded base64url.
package holo
