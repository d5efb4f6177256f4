package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/compository/app/anywork"
	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/holo"
)

const UnknownTemplate = "(unknown template)"

// Entry is one DNA as listed to the user.
type Entry struct {
	DnaHash      string
	TemplateName string
	TemplateHash holo.Hash
	Uid          string
	Properties   map[string]interface{}
	Cell         holo.CellId
}

type CellLister interface {
	ListCellIds(ctx context.Context) ([]holo.CellId, error)
}

type Discoverer struct {
	cells     CellLister
	service   *compository.Service
	wellKnown string
}

func NewDiscoverer(cells CellLister, service *compository.Service) *Discoverer {
	return &Discoverer{
		cells:     cells,
		service:   service,
		wellKnown: service.Cell().DnaKey(),
	}
}

// Installed lists the cells running in the runtime, except the compository,
// with the name of the template each was generated from.
func (it *Discoverer) Installed(ctx context.Context) ([]Entry, error) {
	all, err := it.cells.ListCellIds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}
	cells := holo.WithoutDna(all, it.wellKnown)
	result := make([]Entry, len(cells))
	err = anywork.Fanout(ctx, len(cells), 0, func(ctx context.Context, index int) error {
		key := cells[index].DnaKey()
		result[index] = Entry{DnaHash: key, Cell: cells[index], TemplateName: UnknownTemplate}
		origin, err := it.service.GetTemplateForDna(ctx, key)
		if err != nil {
			common.Debug("no template known for %s: %v", key, err)
			return nil
		}
		result[index].TemplateName = origin.DnaTemplate.Name
		result[index].TemplateHash = origin.DnaTemplateHash
		result[index].Uid = origin.Uid
		result[index].Properties = origin.Properties
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Undiscovered keeps the instantiation records that are neither the compository
// itself nor already installed. Duplicate records of one DNA collapse into the first.
func Undiscovered(records []compository.Hashed[compository.InstantiatedDna], installed []holo.CellId, wellKnown string) []compository.InstantiatedDna {
	skip := map[string]bool{wellKnown: true}
	for _, cell := range installed {
		skip[cell.DnaKey()] = true
	}
	result := []compository.InstantiatedDna{}
	for _, record := range records {
		key := record.Content.InstantiatedDnaHash.String()
		if skip[key] {
			continue
		}
		skip[key] = true
		result = append(result, record.Content)
	}
	return result
}

// Discover lists DNAs the compository knows about that are not installed here.
func (it *Discoverer) Discover(ctx context.Context) ([]Entry, error) {
	records, err := it.service.GetAllInstantiatedDnas(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch instantiated dnas: %w", err)
	}
	installed, err := it.cells.ListCellIds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}
	found := Undiscovered(records, installed, it.wellKnown)
	keys := make([]string, len(found))
	for index, record := range found {
		keys[index] = record.InstantiatedDnaHash.String()
	}
	names, err := it.service.TemplateNames(ctx, keys)
	if err != nil {
		return nil, err
	}
	result := make([]Entry, len(found))
	for index, record := range found {
		name, ok := names[keys[index]]
		if !ok {
			name = UnknownTemplate
		}
		result[index] = Entry{
			DnaHash:      keys[index],
			TemplateName: name,
			TemplateHash: record.DnaTemplateHash,
			Uid:          record.Uid,
			Properties:   record.Properties,
		}
	}
	sort.SliceStable(result, func(left, right int) bool {
		return result[left].TemplateName < result[right].TemplateName
	})
	return result, nil
}

// Prepare regenerates a discovered DNA from its template and parameters, for
// the caller to offer in the install dialog.
func (it *Discoverer) Prepare(ctx context.Context, entry Entry) (*compository.DnaFile, error) {
	origin, err := it.service.GetTemplateForDna(ctx, entry.DnaHash)
	if err != nil {
		return nil, &GenerateError{Cause: fmt.Errorf("template for %s: %w", entry.DnaHash, err)}
	}
	dnaFile, err := compository.GenerateDna(ctx, it.service, origin.DnaTemplateHash, origin.Uid, origin.Properties)
	if err != nil {
		return nil, &GenerateError{Cause: err}
	}
	dnaHash, err := dnaFile.Hash()
	if err != nil {
		return nil, err
	}
	if dnaHash.String() != entry.DnaHash {
		common.Log("Regenerated %s but got %s, the template may have changed.", entry.DnaHash, dnaHash)
	}
	return dnaFile, nil
}
