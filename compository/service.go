package compository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/compository/app/anywork"
	"github.com/compository/app/common"
	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
)

// ZomeCaller is the part of the app websocket the service needs.
type ZomeCaller interface {
	CallZome(ctx context.Context, call conductor.ZomeCall, out interface{}) error
}

// Service calls the compository DNA running in one well-known cell.
type Service struct {
	caller ZomeCaller
	cell   holo.CellId
}

func NewService(caller ZomeCaller, cell holo.CellId) *Service {
	return &Service{caller: caller, cell: cell}
}

func (it *Service) Cell() holo.CellId {
	return it.cell
}

func (it *Service) call(ctx context.Context, zome, fn string, payload, out interface{}) error {
	call, err := conductor.NewZomeCall(it.cell, zome, fn, payload)
	if err != nil {
		return err
	}
	return it.caller.CallZome(ctx, call, out)
}

func (it *Service) GetAllZomeDefs(ctx context.Context) ([]Hashed[ZomeDef], error) {
	result := []Hashed[ZomeDef]{}
	err := it.call(ctx, ZomeName, "get_all_zome_defs", nil, &result)
	return result, err
}

func (it *Service) GetZomeDef(ctx context.Context, hash holo.Hash) (ZomeDef, error) {
	result := ZomeDef{}
	err := it.call(ctx, ZomeName, "get_zome_def", hash, &result)
	return result, err
}

func (it *Service) PublishDnaTemplate(ctx context.Context, template DnaTemplate) (holo.Hash, error) {
	var result holo.Hash
	err := it.call(ctx, ZomeName, "publish_dna_template", &template, &result)
	return result, err
}

func (it *Service) GetDnaTemplate(ctx context.Context, hash holo.Hash) (DnaTemplate, error) {
	result := DnaTemplate{}
	err := it.call(ctx, ZomeName, "get_dna_template", hash, &result)
	return result, err
}

func (it *Service) GetAllInstantiatedDnas(ctx context.Context) ([]Hashed[InstantiatedDna], error) {
	result := []Hashed[InstantiatedDna]{}
	err := it.call(ctx, ZomeName, "get_all_instantiated_dnas", nil, &result)
	return result, err
}

// GetTemplateForDna looks up the template (and its instantiation parameters) a DNA was generated from.
func (it *Service) GetTemplateForDna(ctx context.Context, dnaHash string) (TemplateForDna, error) {
	result := TemplateForDna{}
	err := it.call(ctx, ZomeName, "get_template_for_dna", dnaHash, &result)
	return result, err
}

func (it *Service) PublishInstantiatedDna(ctx context.Context, record InstantiatedDna) (holo.Hash, error) {
	var result holo.Hash
	err := it.call(ctx, ZomeName, "publish_instantiated_dna", &record, &result)
	return result, err
}

func (it *Service) GetFileMetadata(ctx context.Context, hash holo.Hash) (FileMetadata, error) {
	result := FileMetadata{}
	err := it.call(ctx, FileStorageZome, "get_file_metadata", hash, &result)
	return result, err
}

func (it *Service) GetFileChunk(ctx context.Context, hash holo.Hash) ([]byte, error) {
	var result []byte
	err := it.call(ctx, FileStorageZome, "get_file_chunk", hash, &result)
	return result, err
}

// DownloadFile fetches all chunks of a stored file concurrently and joins them in order.
func (it *Service) DownloadFile(ctx context.Context, hash holo.Hash) ([]byte, error) {
	metadata, err := it.GetFileMetadata(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("file %s metadata: %w", hash.Short(), err)
	}
	chunks := make([][]byte, len(metadata.ChunksHashes))
	err = anywork.Fanout(ctx, len(chunks), 0, func(ctx context.Context, index int) error {
		chunk, err := it.GetFileChunk(ctx, metadata.ChunksHashes[index])
		if err != nil {
			return fmt.Errorf("file %s chunk %d: %w", hash.Short(), index, err)
		}
		chunks[index] = chunk
		return nil
	})
	if err != nil {
		return nil, err
	}
	content := bytes.Join(chunks, nil)
	if metadata.Size > 0 && int64(len(content)) != metadata.Size {
		common.Uncritical("download", fmt.Errorf("file %s is %d bytes, metadata says %d", metadata.Name, len(content), metadata.Size))
	}
	return content, nil
}

// TemplateNames resolves the template name of each DNA concurrently, keyed by
// DNA hash. DNAs whose record has not propagated yet are left out.
func (it *Service) TemplateNames(ctx context.Context, dnaHashes []string) (map[string]string, error) {
	names := make([]string, len(dnaHashes))
	err := anywork.Fanout(ctx, len(dnaHashes), 0, func(ctx context.Context, index int) error {
		template, err := it.GetTemplateForDna(ctx, dnaHashes[index])
		if err != nil {
			common.Debug("no template known for %s: %v", dnaHashes[index], err)
			return nil
		}
		names[index] = template.DnaTemplate.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(dnaHashes))
	for index, hash := range dnaHashes {
		if len(names[index]) > 0 {
			result[hash] = names[index]
		}
	}
	return result, nil
}
