package holo

import (
	"fmt"
	"strings"
)

const cellSeparator = ":"

// CellId names a running instance: the DNA it runs and the agent running it.
// On the wire it is a two element array.
type CellId struct {
	_msgpack    struct{} `msgpack:",as_array"`
	DnaHash     Hash
	AgentPubKey Hash
}

func NewCellId(dna, agent Hash) CellId {
	return CellId{DnaHash: dna, AgentPubKey: agent}
}

// DnaKey is the string used to match a cell against navigation paths.
func (it CellId) DnaKey() string {
	return it.DnaHash.String()
}

func (it CellId) Equal(other CellId) bool {
	return it.DnaHash.Equal(other.DnaHash) && it.AgentPubKey.Equal(other.AgentPubKey)
}

func (it CellId) IsZero() bool {
	return it.DnaHash.IsZero() && it.AgentPubKey.IsZero()
}

func (it CellId) String() string {
	return it.DnaHash.String() + cellSeparator + it.AgentPubKey.String()
}

// ParseCellId inverts CellId.String.
func ParseCellId(text string) (CellId, error) {
	dna, agent, ok := strings.Cut(text, cellSeparator)
	if !ok {
		return CellId{}, fmt.Errorf("cell id %q: missing %q separator", text, cellSeparator)
	}
	dnaHash, err := Parse(dna)
	if err != nil {
		return CellId{}, fmt.Errorf("cell id dna part: %w", err)
	}
	agentKey, err := Parse(agent)
	if err != nil {
		return CellId{}, fmt.Errorf("cell id agent part: %w", err)
	}
	return NewCellId(dnaHash, agentKey), nil
}

// FindByDna returns the first cell whose serialized DnaHash equals key.
func FindByDna(cells []CellId, key string) (CellId, bool) {
	for _, cell := range cells {
		if cell.DnaKey() == key {
			return cell, true
		}
	}
	return CellId{}, false
}

// WithoutDna filters out every cell whose serialized DnaHash equals key.
func WithoutDna(cells []CellId, key string) []CellId {
	result := make([]CellId, 0, len(cells))
	for _, cell := range cells {
		if cell.DnaKey() != key {
			result = append(result, cell)
		}
	}
	return result
}
