// Package sessiontest provides an in-memory Holochain runtime for tests.
// It answers admin requests and zome calls from tables, going through
// msgpack the way the websocket does.
package sessiontest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/compository"
	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
	"github.com/compository/app/profiles"
	"github.com/compository/app/session"
	"github.com/compository/app/settings"
)

var ErrUnreachable = errors.New("connection refused")

type lateCell struct {
	cell  holo.CellId
	after int
}

type Runtime struct {
	mu sync.Mutex

	Unreachable bool

	agents    int
	listCalls int
	closed    int
	calls     []string
	failing   map[string]error

	cells      []holo.CellId
	late       []lateCell
	registered map[string][]byte
	apps       map[string]conductor.InstalledApp
	active     []string

	zomeOrder    []string
	zomeDefs     map[string]compository.ZomeDef
	templates    map[string]compository.DnaTemplate
	files        map[string][][]byte
	origins      map[string]compository.TemplateForDna
	instantiated []compository.Hashed[compository.InstantiatedDna]
	profiles     map[string]*profiles.AgentProfile
}

// New returns a runtime that already runs the compository under the default well-known hash.
func New() *Runtime {
	result := Empty()
	dna, err := holo.Parse(settings.DefaultCompositoryDnaHash)
	if err != nil {
		panic(err)
	}
	result.cells = append(result.cells, holo.NewCellId(dna, result.newAgent()))
	return result
}

// Empty returns a reachable runtime with no cells at all.
func Empty() *Runtime {
	return &Runtime{
		failing:    map[string]error{},
		registered: map[string][]byte{},
		apps:       map[string]conductor.InstalledApp{},
		zomeDefs:   map[string]compository.ZomeDef{},
		templates:  map[string]compository.DnaTemplate{},
		files:      map[string][][]byte{},
		origins:    map[string]compository.TemplateForDna{},
		profiles:   map[string]*profiles.AgentProfile{},
	}
}

// Session bootstraps a session against this runtime with default settings.
func (it *Runtime) Session() (*session.Session, error) {
	return session.Bootstrap(context.Background(), settings.Defaults(), it)
}

func (it *Runtime) newAgent() holo.Hash {
	it.agents++
	return holo.Compute(holo.KindAgent, []byte(fmt.Sprintf("agent-%d", it.agents)))
}

func (it *Runtime) record(name string) error {
	it.calls = append(it.calls, name)
	return it.failing[name]
}

// Fail makes every later admin request or zome function with this name fail with err.
func (it *Runtime) Fail(name string, err error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.failing[name] = err
}

func (it *Runtime) Heal(name string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	delete(it.failing, name)
}

// Calls lists admin requests and zome functions in the order they arrived.
func (it *Runtime) Calls() []string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]string{}, it.calls...)
}

func (it *Runtime) Count(name string) int {
	it.mu.Lock()
	defer it.mu.Unlock()
	total := 0
	for _, call := range it.calls {
		if call == name {
			total++
		}
	}
	return total
}

// Closed counts closed connections.
func (it *Runtime) Closed() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.closed
}

func (it *Runtime) ActiveApps() []string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]string{}, it.active...)
}

// AddCell installs a cell running a DNA derived from seed and returns it.
func (it *Runtime) AddCell(seed string) holo.CellId {
	it.mu.Lock()
	defer it.mu.Unlock()
	cell := holo.NewCellId(holo.Compute(holo.KindDna, []byte(seed)), it.newAgent())
	it.cells = append(it.cells, cell)
	return cell
}

// AddLateCell makes a cell show up only from the given ListCellIds call on (1-based).
func (it *Runtime) AddLateCell(seed string, after int) holo.CellId {
	it.mu.Lock()
	defer it.mu.Unlock()
	cell := holo.NewCellId(holo.Compute(holo.KindDna, []byte(seed)), it.newAgent())
	it.late = append(it.late, lateCell{cell: cell, after: after})
	return cell
}

func (it *Runtime) AddZome(name string, chunks ...string) compository.Hashed[compository.ZomeDef] {
	it.mu.Lock()
	defer it.mu.Unlock()
	fileHash := holo.Compute(holo.KindEntry, []byte("file-"+name))
	parts := [][]byte{}
	for _, chunk := range chunks {
		parts = append(parts, []byte(chunk))
	}
	it.files[fileHash.String()] = parts
	def := compository.ZomeDef{Name: name, WasmFile: fileHash, EntryDefs: []string{}, RequiredProperties: []string{}}
	defHash := holo.Compute(holo.KindEntry, []byte("zome-"+name))
	key := defHash.String()
	if _, ok := it.zomeDefs[key]; !ok {
		it.zomeOrder = append(it.zomeOrder, key)
	}
	it.zomeDefs[key] = def
	return compository.Hashed[compository.ZomeDef]{Hash: defHash, Content: def}
}

func (it *Runtime) AddTemplate(template compository.DnaTemplate) holo.Hash {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.storeTemplate(template)
}

func (it *Runtime) storeTemplate(template compository.DnaTemplate) holo.Hash {
	hash := holo.Compute(holo.KindEntry, []byte("template-"+template.Name))
	it.templates[hash.String()] = template
	return hash
}

// AddOrigin tells the compository which template a DNA was generated from.
func (it *Runtime) AddOrigin(dna holo.Hash, templateHash holo.Hash, uid string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.storeOrigin(compository.InstantiatedDna{
		DnaTemplateHash:     templateHash,
		InstantiatedDnaHash: dna,
		Uid:                 uid,
		Properties:          map[string]interface{}{},
	})
}

// ForgetOrigin keeps the instantiation record of a DNA but not its template
// link, like a record whose links have not propagated yet.
func (it *Runtime) ForgetOrigin(dna holo.Hash) {
	it.mu.Lock()
	defer it.mu.Unlock()
	delete(it.origins, dna.String())
}

func (it *Runtime) storeOrigin(record compository.InstantiatedDna) holo.Hash {
	hash := holo.Compute(holo.KindEntry, []byte("instance-"+record.InstantiatedDnaHash.String()))
	it.instantiated = append(it.instantiated, compository.Hashed[compository.InstantiatedDna]{Hash: hash, Content: record})
	it.origins[record.InstantiatedDnaHash.String()] = compository.TemplateForDna{
		DnaTemplateHash: record.DnaTemplateHash,
		DnaTemplate:     it.templates[record.DnaTemplateHash.String()],
		Uid:             record.Uid,
		Properties:      record.Properties,
	}
	return hash
}

func (it *Runtime) Instantiated() []compository.Hashed[compository.InstantiatedDna] {
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]compository.Hashed[compository.InstantiatedDna]{}, it.instantiated...)
}

// Registered reports the bundle registered under a DNA hash.
func (it *Runtime) Registered(dna holo.Hash) ([]byte, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	bundle, ok := it.registered[dna.String()]
	return bundle, ok
}

func (it *Runtime) Profile(cell holo.CellId) *profiles.AgentProfile {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.profiles[cell.String()]
}

func (it *Runtime) DialAdmin(ctx context.Context, url string) (session.Admin, error) {
	if it.Unreachable {
		return nil, fmt.Errorf("dial %s: %w", url, ErrUnreachable)
	}
	return &adminConnection{runtime: it}, nil
}

func (it *Runtime) DialApp(ctx context.Context, url string) (session.App, error) {
	if it.Unreachable {
		return nil, fmt.Errorf("dial %s: %w", url, ErrUnreachable)
	}
	return &appConnection{runtime: it}, nil
}

type adminConnection struct {
	runtime *Runtime
}

func (it *adminConnection) ListCellIds(ctx context.Context) ([]holo.CellId, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("list_cell_ids"); err != nil {
		return nil, err
	}
	runtime.listCalls++
	result := append([]holo.CellId{}, runtime.cells...)
	for _, late := range runtime.late {
		if runtime.listCalls >= late.after {
			result = append(result, late.cell)
		}
	}
	return result, nil
}

func (it *adminConnection) ListDnas(ctx context.Context) ([]holo.Hash, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("list_dnas"); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(runtime.registered))
	for key := range runtime.registered {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	result := make([]holo.Hash, 0, len(keys))
	for _, key := range keys {
		hash, err := holo.Parse(key)
		if err != nil {
			return nil, err
		}
		result = append(result, hash)
	}
	return result, nil
}

func (it *adminConnection) ListActiveApps(ctx context.Context) ([]string, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("list_active_apps"); err != nil {
		return nil, err
	}
	return append([]string{}, runtime.active...), nil
}

func (it *adminConnection) GenerateAgentPubKey(ctx context.Context) (holo.Hash, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("generate_agent_pub_key"); err != nil {
		return nil, err
	}
	return runtime.newAgent(), nil
}

func (it *adminConnection) RegisterDna(ctx context.Context, request conductor.RegisterDnaRequest) (holo.Hash, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("register_dna"); err != nil {
		return nil, err
	}
	if len(request.Bundle) == 0 {
		return nil, &conductor.ResponseError{Request: "register_dna", Type: "InvalidRequest", Message: "only bundles are supported"}
	}
	dna, err := compository.ReadBundle(bytes.NewReader(request.Bundle))
	if err != nil {
		return nil, &conductor.ResponseError{Request: "register_dna", Type: "SerializationError", Message: err.Error()}
	}
	hash, err := dna.Hash()
	if err != nil {
		return nil, err
	}
	runtime.registered[hash.String()] = request.Bundle
	return hash, nil
}

func (it *adminConnection) InstallApp(ctx context.Context, request conductor.InstallAppRequest) (*conductor.InstalledApp, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("install_app"); err != nil {
		return nil, err
	}
	if _, ok := runtime.apps[request.InstalledAppId]; ok {
		return nil, &conductor.ResponseError{Request: "install_app", Type: "AppAlreadyInstalled", Message: request.InstalledAppId}
	}
	app := conductor.InstalledApp{InstalledAppId: request.InstalledAppId}
	for _, dna := range request.Dnas {
		if _, ok := runtime.registered[dna.Hash.String()]; !ok {
			return nil, &conductor.ResponseError{Request: "install_app", Type: "DnaMissing", Message: dna.Hash.String()}
		}
		app.CellData = append(app.CellData, conductor.InstalledCell{
			CellId:   holo.NewCellId(dna.Hash, request.AgentKey),
			CellNick: dna.Nick,
		})
	}
	runtime.apps[request.InstalledAppId] = app
	return &app, nil
}

func (it *adminConnection) ActivateApp(ctx context.Context, installedAppId string) error {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("activate_app"); err != nil {
		return err
	}
	app, ok := runtime.apps[installedAppId]
	if !ok {
		return &conductor.ResponseError{Request: "activate_app", Type: "AppNotInstalled", Message: installedAppId}
	}
	runtime.active = append(runtime.active, installedAppId)
	for _, cell := range app.CellData {
		runtime.cells = append(runtime.cells, cell.CellId)
	}
	return nil
}

func (it *adminConnection) Close() error {
	it.runtime.mu.Lock()
	defer it.runtime.mu.Unlock()
	it.runtime.closed++
	return nil
}

type appConnection struct {
	runtime *Runtime
}

func (it *appConnection) CallZome(ctx context.Context, call conductor.ZomeCall, out interface{}) error {
	value, err := it.runtime.answer(call)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", call.ZomeName, call.FnName, err)
	}
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return msgpack.Unmarshal(raw, out)
}

func (it *appConnection) AppInfo(ctx context.Context, installedAppId string) (*conductor.InstalledApp, error) {
	runtime := it.runtime
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	if err := runtime.record("app_info"); err != nil {
		return nil, err
	}
	app, ok := runtime.apps[installedAppId]
	if !ok {
		return nil, &conductor.ResponseError{Request: "app_info", Type: "AppNotInstalled", Message: installedAppId}
	}
	return &app, nil
}

func (it *appConnection) Close() error {
	it.runtime.mu.Lock()
	defer it.runtime.mu.Unlock()
	it.runtime.closed++
	return nil
}

func decodeHash(payload []byte) string {
	var hash holo.Hash
	msgpack.Unmarshal(payload, &hash)
	return hash.String()
}

func (it *Runtime) chunkHash(file string, index int) holo.Hash {
	return holo.Compute(holo.KindEntry, []byte(fmt.Sprintf("%s#%d", file, index)))
}

func (it *Runtime) answer(call conductor.ZomeCall) (interface{}, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if err := it.record(call.FnName); err != nil {
		return nil, err
	}
	switch call.ZomeName {
	case compository.ZomeName:
		return it.answerCompository(call)
	case compository.FileStorageZome:
		return it.answerFileStorage(call)
	case profiles.ZomeName:
		return it.answerProfiles(call)
	}
	return nil, fmt.Errorf("no zome %q", call.ZomeName)
}

func (it *Runtime) answerCompository(call conductor.ZomeCall) (interface{}, error) {
	switch call.FnName {
	case "get_all_zome_defs":
		result := []compository.Hashed[compository.ZomeDef]{}
		for _, key := range it.zomeOrder {
			hash, _ := holo.Parse(key)
			result = append(result, compository.Hashed[compository.ZomeDef]{Hash: hash, Content: it.zomeDefs[key]})
		}
		return result, nil
	case "get_zome_def":
		def, ok := it.zomeDefs[decodeHash(call.Payload)]
		if !ok {
			return nil, errors.New("zome def not found")
		}
		return def, nil
	case "publish_dna_template":
		template := compository.DnaTemplate{}
		if err := msgpack.Unmarshal(call.Payload, &template); err != nil {
			return nil, err
		}
		return it.storeTemplate(template), nil
	case "get_dna_template":
		template, ok := it.templates[decodeHash(call.Payload)]
		if !ok {
			return nil, errors.New("template not found")
		}
		return template, nil
	case "get_all_instantiated_dnas":
		return it.instantiated, nil
	case "get_template_for_dna":
		var dna string
		if err := msgpack.Unmarshal(call.Payload, &dna); err != nil {
			return nil, err
		}
		origin, ok := it.origins[dna]
		if !ok {
			return nil, fmt.Errorf("unknown dna %s", dna)
		}
		return origin, nil
	case "publish_instantiated_dna":
		record := compository.InstantiatedDna{}
		if err := msgpack.Unmarshal(call.Payload, &record); err != nil {
			return nil, err
		}
		return it.storeOrigin(record), nil
	}
	return nil, fmt.Errorf("no function %q", call.FnName)
}

func (it *Runtime) answerFileStorage(call conductor.ZomeCall) (interface{}, error) {
	switch call.FnName {
	case "get_file_metadata":
		file := decodeHash(call.Payload)
		chunks, ok := it.files[file]
		if !ok {
			return nil, errors.New("file not found")
		}
		metadata := compository.FileMetadata{Name: file, FileType: "application/wasm"}
		for index, chunk := range chunks {
			metadata.Size += int64(len(chunk))
			metadata.ChunksHashes = append(metadata.ChunksHashes, it.chunkHash(file, index))
		}
		return metadata, nil
	case "get_file_chunk":
		wanted := decodeHash(call.Payload)
		files := make([]string, 0, len(it.files))
		for file := range it.files {
			files = append(files, file)
		}
		sort.Strings(files)
		for _, file := range files {
			for index, chunk := range it.files[file] {
				if it.chunkHash(file, index).String() == wanted {
					return chunk, nil
				}
			}
		}
		return nil, errors.New("chunk not found")
	}
	return nil, fmt.Errorf("no function %q", call.FnName)
}

func (it *Runtime) answerProfiles(call conductor.ZomeCall) (interface{}, error) {
	key := call.CellId.String()
	switch call.FnName {
	case "get_my_profile":
		return it.profiles[key], nil
	case "create_profile":
		profile := profiles.Profile{}
		if err := msgpack.Unmarshal(call.Payload, &profile); err != nil {
			return nil, err
		}
		created := &profiles.AgentProfile{AgentPubKey: call.CellId.AgentPubKey, Profile: profile}
		it.profiles[key] = created
		return created, nil
	}
	return nil, fmt.Errorf("no function %q", call.FnName)
}
