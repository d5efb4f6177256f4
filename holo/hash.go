package holo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

const (
	prefixSize   = 3
	coreSize     = 32
	locationSize = 4
	HashSize     = prefixSize + coreSize + locationSize

	multibaseMarker = 'u'
)

var (
	ErrEmptyHash  = errors.New("empty hash")
	ErrHashSize   = errors.New("hash has wrong size")
	ErrHashMarker = errors.New("hash is missing the 'u' multibase marker")
	ErrHashKind   = errors.New("hash has unexpected type prefix")
	encoding      = base64.RawURLEncoding
)

// Kind is the three byte type prefix of a HoloHash.
type Kind [prefixSize]byte

var (
	KindDna    = Kind{0x84, 0x2d, 0x24}
	KindAgent  = Kind{0x84, 0x20, 0x24}
	KindEntry  = Kind{0x84, 0x21, 0x24}
	KindHeader = Kind{0x84, 0x29, 0x24}
	KindWasm   = Kind{0x84, 0x2a, 0x24}
)

func (it Kind) String() string {
	switch it {
	case KindDna:
		return "dna"
	case KindAgent:
		return "agent"
	case KindEntry:
		return "entry"
	case KindHeader:
		return "header"
	case KindWasm:
		return "wasm"
	}
	return fmt.Sprintf("unknown(%x)", it[:])
}

// Hash is a raw 39 byte HoloHash.
type Hash []byte

// Compute hashes content with blake2b-256 and wraps the digest as a HoloHash of the given kind.
func Compute(kind Kind, content []byte) Hash {
	digest := blake2b.Sum256(content)
	return FromCore(kind, digest[:])
}

// FromCore builds a full hash from a 32 byte core, appending its DHT location.
func FromCore(kind Kind, core []byte) Hash {
	result := make(Hash, 0, HashSize)
	result = append(result, kind[:]...)
	result = append(result, core...)
	result = append(result, Location(core)...)
	return result
}

// Location folds a blake2b-128 digest of the core into four bytes.
func Location(core []byte) []byte {
	digest, _ := blake2b.New(16, nil)
	digest.Write(core)
	sum := digest.Sum(nil)
	out := []byte{sum[0], sum[1], sum[2], sum[3]}
	for at := 4; at < len(sum); at += 4 {
		out[0] ^= sum[at]
		out[1] ^= sum[at+1]
		out[2] ^= sum[at+2]
		out[3] ^= sum[at+3]
	}
	return out
}

func (it Hash) Kind() Kind {
	var kind Kind
	if len(it) >= prefixSize {
		copy(kind[:], it[:prefixSize])
	}
	return kind
}

func (it Hash) Core() []byte {
	if len(it) != HashSize {
		return nil
	}
	return it[prefixSize : prefixSize+coreSize]
}

func (it Hash) Equal(other Hash) bool {
	return bytes.Equal(it, other)
}

func (it Hash) IsZero() bool {
	return len(it) == 0
}

// Validate checks size and that the trailing location matches the core.
func (it Hash) Validate() error {
	if len(it) == 0 {
		return ErrEmptyHash
	}
	if len(it) != HashSize {
		return fmt.Errorf("%w: %d bytes", ErrHashSize, len(it))
	}
	if !bytes.Equal(it[prefixSize+coreSize:], Location(it.Core())) {
		return fmt.Errorf("hash location bytes do not match its core")
	}
	return nil
}

// String serializes the hash the way the conductor tooling does.
func (it Hash) String() string {
	if len(it) == 0 {
		return ""
	}
	return string(multibaseMarker) + encoding.EncodeToString(it)
}

// Short is a display form for narrow columns.
func (it Hash) Short() string {
	text := it.String()
	if len(text) <= 16 {
		return text
	}
	return text[:8] + "…" + text[len(text)-6:]
}

// Parse decodes a serialized hash.
func Parse(text string) (Hash, error) {
	if len(text) == 0 {
		return nil, ErrEmptyHash
	}
	if text[0] != multibaseMarker {
		return nil, ErrHashMarker
	}
	raw, err := encoding.DecodeString(text[1:])
	if err != nil {
		return nil, fmt.Errorf("decode hash %q: %w", text, err)
	}
	if len(raw) != HashSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHashSize, len(raw))
	}
	return Hash(raw), nil
}

// ParseKind decodes a serialized hash and insists on its type prefix.
func ParseKind(kind Kind, text string) (Hash, error) {
	hash, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if hash.Kind() != kind {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrHashKind, kind, hash.Kind())
	}
	return hash, nil
}

func (it Hash) MarshalText() ([]byte, error) {
	return []byte(it.String()), nil
}

func (it *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*it = nil
		return nil
	}
	hash, err := Parse(string(text))
	if err != nil {
		return err
	}
	*it = hash
	return nil
}

// EncodeMsgpack keeps hashes binary on the wire even though they marshal to text elsewhere.
func (it Hash) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBytes(it)
}

func (it *Hash) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	*it = raw
	return nil
}
