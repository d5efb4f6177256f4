package compository

import (
	"context"
	"fmt"

	"github.com/compository/app/anywork"
	"github.com/compository/app/common"
	"github.com/compository/app/holo"
)

// TemplateSource is what DNA generation needs from the compository.
type TemplateSource interface {
	GetDnaTemplate(ctx context.Context, hash holo.Hash) (DnaTemplate, error)
	GetZomeDef(ctx context.Context, hash holo.Hash) (ZomeDef, error)
	DownloadFile(ctx context.Context, hash holo.Hash) ([]byte, error)
}

// GenerateDna fetches a published template, downloads the wasm of each of its
// zomes and assembles an installable DnaFile with the given uid and properties.
func GenerateDna(ctx context.Context, source TemplateSource, templateHash holo.Hash, uid string, properties map[string]interface{}) (*DnaFile, error) {
	stopwatch := common.Stopwatch("generate dna from template %s took", templateHash.Short())
	defer stopwatch.Debug()

	template, err := source.GetDnaTemplate(ctx, templateHash)
	if err != nil {
		return nil, fmt.Errorf("dna template %s: %w", templateHash.Short(), err)
	}
	if properties == nil {
		properties = map[string]interface{}{}
	}

	zomes := make([]ZomeEntry, len(template.ZomeDefs))
	code := make([]WasmCode, len(template.ZomeDefs))
	err = anywork.Fanout(ctx, len(template.ZomeDefs), 0, func(ctx context.Context, index int) error {
		reference := template.ZomeDefs[index]
		def, err := source.GetZomeDef(ctx, reference.ZomeDefHash)
		if err != nil {
			return fmt.Errorf("zome def %q: %w", reference.Name, err)
		}
		wasm, err := source.DownloadFile(ctx, def.WasmFile)
		if err != nil {
			return fmt.Errorf("zome %q wasm: %w", reference.Name, err)
		}
		hash := WasmHash(wasm)
		zomes[index] = ZomeEntry{Name: reference.Name, Def: WasmZome{WasmHash: hash}}
		code[index] = WasmCode{Hash: hash, Code: wasm}
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.Debug("generated dna %q with %d zomes", template.Name, len(zomes))
	return &DnaFile{
		Dna: DnaDef{
			Name:       template.Name,
			Uid:        uid,
			Properties: properties,
			Zomes:      zomes,
		},
		Code: code,
	}, nil
}
