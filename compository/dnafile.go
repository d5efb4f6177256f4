package compository

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/holo"
)

const DnaFileExtension = ".dna"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type WasmZome struct {
	WasmHash holo.Hash `msgpack:"wasm_hash"`
}

type ZomeEntry struct {
	_msgpack struct{} `msgpack:",as_array"`
	Name     string
	Def      WasmZome
}

// DnaDef is the hashed part of a DNA: everything that makes two DNAs different networks.
type DnaDef struct {
	Name       string                 `msgpack:"name"`
	Uid        string                 `msgpack:"uid"`
	Properties map[string]interface{} `msgpack:"properties"`
	Zomes      []ZomeEntry            `msgpack:"zomes"`
}

type WasmCode struct {
	_msgpack struct{} `msgpack:",as_array"`
	Hash     holo.Hash
	Code     []byte
}

// DnaFile is an installable DNA: its definition plus the wasm of every zome.
type DnaFile struct {
	Dna  DnaDef     `msgpack:"dna"`
	Code []WasmCode `msgpack:"code"`
}

func canonical(value interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := msgpack.NewEncoder(&buffer)
	encoder.SetSortMapKeys(true)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// WasmHash identifies zome code by content.
func WasmHash(code []byte) holo.Hash {
	return holo.Compute(holo.KindWasm, code)
}

// Hash is the DNA hash the conductor will assign once the file is registered.
func (it *DnaFile) Hash() (holo.Hash, error) {
	encoded, err := canonical(&it.Dna)
	if err != nil {
		return nil, fmt.Errorf("encode dna def: %w", err)
	}
	return holo.Compute(holo.KindDna, encoded), nil
}

// Bundle serializes the file the way it is written to disk: gzipped msgpack.
func (it *DnaFile) Bundle() ([]byte, error) {
	encoded, err := canonical(it)
	if err != nil {
		return nil, fmt.Errorf("encode dna file: %w", err)
	}
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err := writer.Write(encoded); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func ReadBundle(reader io.Reader) (*DnaFile, error) {
	unzipped, err := gzip.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("dna bundle: %w", err)
	}
	defer unzipped.Close()
	result := &DnaFile{}
	if err := msgpack.NewDecoder(unzipped).Decode(result); err != nil {
		return nil, fmt.Errorf("dna bundle: %w", err)
	}
	return result, nil
}

func (it *DnaFile) Filename() string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(it.Dna.Name, "_"), "_")
	if len(name) == 0 {
		name = "generated"
	}
	return name + DnaFileExtension
}

// WriteFile saves the bundle into directory and returns the full path.
func (it *DnaFile) WriteFile(directory string) (string, error) {
	content, err := it.Bundle()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return "", err
	}
	fullpath := filepath.Join(directory, it.Filename())
	if err := os.WriteFile(fullpath, content, 0o640); err != nil {
		return "", err
	}
	return fullpath, nil
}
