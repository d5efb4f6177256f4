package compository

import "github.com/compository/app/holo"

const (
	ZomeName        = "compository"
	FileStorageZome = "file_storage"
)

// Hashed pairs an entry with the hash it is stored under.
type Hashed[T any] struct {
	Hash    holo.Hash `msgpack:"hash"`
	Content T         `msgpack:"content"`
}

// ZomeDef is a reusable building block published to the compository.
type ZomeDef struct {
	Name                  string    `msgpack:"name"`
	WasmFile              holo.Hash `msgpack:"wasm_file"`
	EntryDefs             []string  `msgpack:"entry_defs"`
	RequiredProperties    []string  `msgpack:"required_properties"`
	RequiredMembraneProof bool      `msgpack:"required_membrane_proof"`
	ComponentsBundleFile  holo.Hash `msgpack:"components_bundle_file,omitempty"`
}

type ZomeDefReference struct {
	Name        string    `msgpack:"name"`
	ZomeDefHash holo.Hash `msgpack:"zome_def_hash"`
}

// DnaTemplate is a named, ordered composition of zome references.
type DnaTemplate struct {
	Name     string             `msgpack:"name"`
	ZomeDefs []ZomeDefReference `msgpack:"zome_defs"`
}

func (it DnaTemplate) HasZome(name string) bool {
	for _, zome := range it.ZomeDefs {
		if zome.Name == name {
			return true
		}
	}
	return false
}

// InstantiatedDna records that a DNA was generated from a template with the given parameters.
type InstantiatedDna struct {
	DnaTemplateHash     holo.Hash              `msgpack:"dna_template_hash"`
	InstantiatedDnaHash holo.Hash              `msgpack:"instantiated_dna_hash"`
	Uid                 string                 `msgpack:"uid"`
	Properties          map[string]interface{} `msgpack:"properties"`
}

// TemplateForDna is what the compository knows about an installed DNA's origin.
type TemplateForDna struct {
	DnaTemplateHash holo.Hash              `msgpack:"dna_template_hash"`
	DnaTemplate     DnaTemplate            `msgpack:"dna_template"`
	Uid             string                 `msgpack:"uid"`
	Properties      map[string]interface{} `msgpack:"properties"`
}

type FileMetadata struct {
	Name         string      `msgpack:"name"`
	LastModified int64       `msgpack:"last_modified"`
	Size         int64       `msgpack:"size"`
	FileType     string      `msgpack:"file_type"`
	ChunksHashes []holo.Hash `msgpack:"chunks_hashes"`
}

// NewTemplate builds a template from the selected zome definitions, in selection order.
func NewTemplate(name string, selected []Hashed[ZomeDef]) DnaTemplate {
	references := make([]ZomeDefReference, 0, len(selected))
	for _, def := range selected {
		references = append(references, ZomeDefReference{
			Name:        def.Content.Name,
			ZomeDefHash: def.Hash,
		})
	}
	return DnaTemplate{Name: name, ZomeDefs: references}
}
