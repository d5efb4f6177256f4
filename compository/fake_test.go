package compository_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/compository"
	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
)

// fakeCompository answers zome calls from in-memory tables, going through msgpack like the wire does.
type fakeCompository struct {
	mu        sync.Mutex
	calls     []string
	zomeDefs  map[string]compository.ZomeDef
	templates map[string]compository.DnaTemplate
	files     map[string][][]byte
	origins   map[string]compository.TemplateForDna
	failing   map[string]error
}

func newFakeCompository() *fakeCompository {
	return &fakeCompository{
		zomeDefs:  map[string]compository.ZomeDef{},
		templates: map[string]compository.DnaTemplate{},
		files:     map[string][][]byte{},
		origins:   map[string]compository.TemplateForDna{},
		failing:   map[string]error{},
	}
}

func (it *fakeCompository) addZome(name string, chunks ...string) compository.Hashed[compository.ZomeDef] {
	fileHash := holo.Compute(holo.KindEntry, []byte("file-"+name))
	parts := [][]byte{}
	for _, chunk := range chunks {
		parts = append(parts, []byte(chunk))
	}
	it.files[fileHash.String()] = parts
	def := compository.ZomeDef{Name: name, WasmFile: fileHash}
	defHash := holo.Compute(holo.KindEntry, []byte("zome-"+name))
	it.zomeDefs[defHash.String()] = def
	return compository.Hashed[compository.ZomeDef]{Hash: defHash, Content: def}
}

func (it *fakeCompository) addTemplate(template compository.DnaTemplate) holo.Hash {
	hash := holo.Compute(holo.KindEntry, []byte("template-"+template.Name))
	it.templates[hash.String()] = template
	return hash
}

func (it *fakeCompository) chunkHash(file string, index int) holo.Hash {
	return holo.Compute(holo.KindEntry, []byte(fmt.Sprintf("%s#%d", file, index)))
}

func decodeHash(payload []byte) string {
	var hash holo.Hash
	msgpack.Unmarshal(payload, &hash)
	return hash.String()
}

func (it *fakeCompository) answer(call conductor.ZomeCall) (interface{}, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.calls = append(it.calls, call.FnName)
	if err, ok := it.failing[call.FnName]; ok {
		return nil, err
	}
	switch call.FnName {
	case "get_all_zome_defs":
		result := []compository.Hashed[compository.ZomeDef]{}
		for key, def := range it.zomeDefs {
			hash, _ := holo.Parse(key)
			result = append(result, compository.Hashed[compository.ZomeDef]{Hash: hash, Content: def})
		}
		return result, nil
	case "get_zome_def":
		def, ok := it.zomeDefs[decodeHash(call.Payload)]
		if !ok {
			return nil, fmt.Errorf("no zome def")
		}
		return def, nil
	case "get_dna_template":
		template, ok := it.templates[decodeHash(call.Payload)]
		if !ok {
			return nil, fmt.Errorf("no template")
		}
		return template, nil
	case "get_template_for_dna":
		var dna string
		msgpack.Unmarshal(call.Payload, &dna)
		origin, ok := it.origins[dna]
		if !ok {
			return nil, fmt.Errorf("unknown dna %s", dna)
		}
		return origin, nil
	case "publish_dna_template":
		template := compository.DnaTemplate{}
		msgpack.Unmarshal(call.Payload, &template)
		hash := holo.Compute(holo.KindEntry, []byte("template-"+template.Name))
		it.templates[hash.String()] = template
		return hash, nil
	case "get_file_metadata":
		file := decodeHash(call.Payload)
		chunks, ok := it.files[file]
		if !ok {
			return nil, fmt.Errorf("no file")
		}
		metadata := compository.FileMetadata{Name: file}
		for index, chunk := range chunks {
			metadata.Size += int64(len(chunk))
			metadata.ChunksHashes = append(metadata.ChunksHashes, it.chunkHash(file, index))
		}
		return metadata, nil
	case "get_file_chunk":
		wanted := decodeHash(call.Payload)
		for file, chunks := range it.files {
			for index, chunk := range chunks {
				if it.chunkHash(file, index).String() == wanted {
					return chunk, nil
				}
			}
		}
		return nil, fmt.Errorf("no chunk")
	}
	return nil, fmt.Errorf("unexpected call %s", call.FnName)
}

func (it *fakeCompository) CallZome(ctx context.Context, call conductor.ZomeCall, out interface{}) error {
	value, err := it.answer(call)
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(raw, out)
}

func (it *fakeCompository) service() *compository.Service {
	cell := holo.NewCellId(holo.Compute(holo.KindDna, []byte("compository")), holo.Compute(holo.KindAgent, []byte("me")))
	return compository.NewService(it, cell)
}
