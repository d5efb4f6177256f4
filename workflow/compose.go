// Package workflow holds the console's two user flows: composing a new DNA
// out of published zomes, and discovering DNAs other agents generated.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
)

const (
	LockedZome = "blocky"

	GenerateFailedMessage = "Error generating the DNA: maybe the zomes haven't been propagated yet. Try again in a few minutes."
)

var ErrNameRequired = errors.New("a name is required for the new DNA")

// GenerateError carries the real cause behind the fixed message users see.
type GenerateError struct {
	Cause error
}

func (it *GenerateError) Error() string {
	return GenerateFailedMessage
}

func (it *GenerateError) Unwrap() error {
	return it.Cause
}

// Composer keeps the zome selection of the composition form.
type Composer struct {
	service  *compository.Service
	zomes    []compository.Hashed[compository.ZomeDef]
	selected map[int]bool
}

func NewComposer(service *compository.Service) *Composer {
	return &Composer{
		service:  service,
		selected: map[int]bool{},
	}
}

// Load fetches the published zomes and resets the selection to the locked ones.
func (it *Composer) Load(ctx context.Context) error {
	zomes, err := it.service.GetAllZomeDefs(ctx)
	if err != nil {
		return fmt.Errorf("fetch zome definitions: %w", err)
	}
	it.SetZomes(zomes)
	return nil
}

func (it *Composer) SetZomes(zomes []compository.Hashed[compository.ZomeDef]) {
	it.zomes = zomes
	it.selected = map[int]bool{}
	for index, zome := range zomes {
		if zome.Content.Name == LockedZome {
			it.selected[index] = true
		}
	}
}

func (it *Composer) Zomes() []compository.Hashed[compository.ZomeDef] {
	return it.zomes
}

func (it *Composer) IsLocked(index int) bool {
	return index >= 0 && index < len(it.zomes) && it.zomes[index].Content.Name == LockedZome
}

func (it *Composer) IsSelected(index int) bool {
	return it.selected[index]
}

// Toggle flips one zome in or out of the selection and reports the new state.
// Locked zomes stay selected.
func (it *Composer) Toggle(index int) bool {
	if index < 0 || index >= len(it.zomes) {
		return false
	}
	if it.IsLocked(index) {
		return true
	}
	it.selected[index] = !it.selected[index]
	return it.selected[index]
}

// Selected returns the selected indices in list order.
func (it *Composer) Selected() []int {
	result := make([]int, 0, len(it.selected))
	for index, ok := range it.selected {
		if ok {
			result = append(result, index)
		}
	}
	sort.Ints(result)
	return result
}

func CanSubmit(name string) bool {
	return len(strings.TrimSpace(name)) > 0
}

// Compose publishes a template from the selection, generates its DNA and
// records the instantiation. The caller offers the result in the install
// dialog. Nothing is rolled back when a later step fails.
func (it *Composer) Compose(ctx context.Context, name string) (*compository.DnaFile, error) {
	name = strings.TrimSpace(name)
	if !CanSubmit(name) {
		return nil, ErrNameRequired
	}
	selection := []compository.Hashed[compository.ZomeDef]{}
	for _, index := range it.Selected() {
		selection = append(selection, it.zomes[index])
	}
	dnaFile, err := it.compose(ctx, compository.NewTemplate(name, selection))
	if err != nil {
		common.Error("compose", err)
		return nil, &GenerateError{Cause: err}
	}
	return dnaFile, nil
}

func (it *Composer) compose(ctx context.Context, template compository.DnaTemplate) (*compository.DnaFile, error) {
	stopwatch := common.Stopwatch("compose %q with %d zomes", template.Name, len(template.ZomeDefs))
	defer stopwatch.Debug()

	templateHash, err := it.service.PublishDnaTemplate(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("publish template: %w", err)
	}
	properties := map[string]interface{}{}
	dnaFile, err := compository.GenerateDna(ctx, it.service, templateHash, "", properties)
	if err != nil {
		return nil, err
	}
	dnaHash, err := dnaFile.Hash()
	if err != nil {
		return nil, err
	}
	_, err = it.service.PublishInstantiatedDna(ctx, compository.InstantiatedDna{
		DnaTemplateHash:     templateHash,
		InstantiatedDnaHash: dnaHash,
		Uid:                 "",
		Properties:          properties,
	})
	if err != nil {
		return nil, fmt.Errorf("publish instantiated dna: %w", err)
	}
	return dnaFile, nil
}
