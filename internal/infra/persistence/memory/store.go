// Package memory provides an in-memory implementation of the core persistence
// store used for tests, dry runs and as the working set of the snapshotting
// SQL stores.
package memory

import (
	"breederbook/pkg/domain"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Animal aliases domain.Animal for in-memory persistence operations.
	Animal = domain.Animal
	// Litter aliases domain.Litter.
	Litter = domain.Litter
	// Owner aliases domain.Owner.
	Owner = domain.Owner
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	animals map[string]Animal
	litters map[string]Litter
	owners  map[string]Owner
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Animals map[string]Animal `json:"animals"`
	Litters map[string]Litter `json:"litters"`
	Owners  map[string]Owner  `json:"owners"`
}

func newMemoryState() memoryState {
	return memoryState{
		animals: make(map[string]Animal),
		litters: make(map[string]Litter),
		owners:  make(map[string]Owner),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.animals {
		cloned.animals[k] = cloneAnimal(v)
	}
	for k, v := range s.litters {
		cloned.litters[k] = cloneLitter(v)
	}
	for k, v := range s.owners {
		cloned.owners[k] = v
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{Animals: cloned.animals, Litters: cloned.litters, Owners: cloned.owners}
}

// memoryStateFromSnapshot rebuilds state from a snapshot, dropping litter
// references to animals that no longer exist.
func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Owners {
		state.owners[k] = v
	}
	for k, v := range s.Animals {
		a := cloneAnimal(v)
		if a.OwnerID != nil {
			if _, ok := state.owners[*a.OwnerID]; !ok {
				a.OwnerID = nil
			}
		}
		state.animals[k] = a
	}
	exists := func(id string) bool {
		_, ok := state.animals[id]
		return ok
	}
	for k, v := range s.Litters {
		l := cloneLitter(v)
		if l.DamID != nil && !exists(*l.DamID) {
			l.DamID = nil
		}
		if l.SireID != nil && !exists(*l.SireID) {
			l.SireID = nil
		}
		l.OffspringIDs = filterIDs(l.OffspringIDs, exists)
		state.litters[k] = l
	}
	return state
}

func cloneAnimal(a Animal) Animal {
	cp := a
	cp.BirthDate = cloneTime(a.BirthDate)
	cp.DeathDate = cloneTime(a.DeathDate)
	cp.OwnerID = cloneString(a.OwnerID)
	return cp
}

func cloneLitter(l Litter) Litter {
	cp := l
	cp.DamID = cloneString(l.DamID)
	cp.SireID = cloneString(l.SireID)
	cp.MatingDate = cloneTime(l.MatingDate)
	cp.BirthDate = cloneTime(l.BirthDate)
	cp.OffspringIDs = append([]string(nil), l.OffspringIDs...)
	return cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func containsString(values []string, id string) bool {
	for _, v := range values {
		if v == id {
			return true
		}
	}
	return false
}

func filterIDs(values []string, exists func(string) bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if exists(v) && !containsString(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the clock used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListAnimals returns all animals within the snapshot ordered by ID.
func (v transactionView) ListAnimals() []Animal {
	return sortedAnimals(v.state.animals)
}

// ListLitters returns all litters within the snapshot ordered by ID.
func (v transactionView) ListLitters() []Litter {
	return sortedLitters(v.state.litters)
}

// ListOwners returns all owners within the snapshot ordered by ID.
func (v transactionView) ListOwners() []Owner {
	return sortedOwners(v.state.owners)
}

// FindAnimal looks up an animal by ID.
func (v transactionView) FindAnimal(id string) (Animal, bool) {
	a, ok := v.state.animals[id]
	if !ok {
		return Animal{}, false
	}
	return cloneAnimal(a), true
}

// FindLitter looks up a litter by ID.
func (v transactionView) FindLitter(id string) (Litter, bool) {
	l, ok := v.state.litters[id]
	if !ok {
		return Litter{}, false
	}
	return cloneLitter(l), true
}

// FindOwner looks up an owner by ID.
func (v transactionView) FindOwner(id string) (Owner, bool) {
	o, ok := v.state.owners[id]
	return o, ok
}

// RunInTransaction executes fn within a transactional copy of the store state.
// State is committed only when fn succeeds and no blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateAnimal stores a new animal within the transaction.
func (tx *transaction) CreateAnimal(a Animal) (Animal, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.animals[a.ID]; exists {
		return Animal{}, fmt.Errorf("animal %q already exists", a.ID)
	}
	if a.Sex == "" {
		a.Sex = domain.SexUnknown
	}
	if a.OwnerID != nil {
		if _, ok := tx.state.owners[*a.OwnerID]; !ok {
			return Animal{}, domain.ErrNotFound{Entity: domain.EntityOwner, ID: *a.OwnerID}
		}
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.animals[a.ID] = cloneAnimal(a)
	tx.recordChange(Change{Entity: domain.EntityAnimal, Action: domain.ActionCreate, After: cloneAnimal(a)})
	return cloneAnimal(a), nil
}

// UpdateAnimal mutates an animal using the provided mutator function.
func (tx *transaction) UpdateAnimal(id string, mutator func(*Animal) error) (Animal, error) {
	current, ok := tx.state.animals[id]
	if !ok {
		return Animal{}, domain.ErrNotFound{Entity: domain.EntityAnimal, ID: id}
	}
	before := cloneAnimal(current)
	if err := mutator(&current); err != nil {
		return Animal{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.animals[id] = cloneAnimal(current)
	tx.recordChange(Change{Entity: domain.EntityAnimal, Action: domain.ActionUpdate, Before: before, After: cloneAnimal(current)})
	return cloneAnimal(current), nil
}

// AttachOwner links an animal to an external owner and clears self ownership.
func (tx *transaction) AttachOwner(animalID, ownerID string) (Animal, error) {
	if _, ok := tx.state.owners[ownerID]; !ok {
		return Animal{}, domain.ErrNotFound{Entity: domain.EntityOwner, ID: ownerID}
	}
	return tx.UpdateAnimal(animalID, func(a *Animal) error {
		a.OwnerID = &ownerID
		a.OwnedBySelf = false
		return nil
	})
}

// CreateLitter stores a new litter. Parent and offspring links are attached
// separately so each one is validated.
func (tx *transaction) CreateLitter(l Litter) (Litter, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.litters[l.ID]; exists {
		return Litter{}, fmt.Errorf("litter %q already exists", l.ID)
	}
	for _, id := range l.OffspringIDs {
		if _, ok := tx.state.animals[id]; !ok {
			return Litter{}, domain.ErrNotFound{Entity: domain.EntityAnimal, ID: id}
		}
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.litters[l.ID] = cloneLitter(l)
	tx.recordChange(Change{Entity: domain.EntityLitter, Action: domain.ActionCreate, After: cloneLitter(l)})
	return cloneLitter(l), nil
}

// UpdateLitter mutates an existing litter.
func (tx *transaction) UpdateLitter(id string, mutator func(*Litter) error) (Litter, error) {
	current, ok := tx.state.litters[id]
	if !ok {
		return Litter{}, domain.ErrNotFound{Entity: domain.EntityLitter, ID: id}
	}
	before := cloneLitter(current)
	if err := mutator(&current); err != nil {
		return Litter{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.litters[id] = cloneLitter(current)
	tx.recordChange(Change{Entity: domain.EntityLitter, Action: domain.ActionUpdate, Before: before, After: cloneLitter(current)})
	return cloneLitter(current), nil
}

func (tx *transaction) attachParent(litterID, animalID, role string, want domain.Sex, set func(*Litter, *string)) (Litter, error) {
	if _, ok := tx.state.litters[litterID]; !ok {
		return Litter{}, domain.ErrNotFound{Entity: domain.EntityLitter, ID: litterID}
	}
	animal, ok := tx.state.animals[animalID]
	if !ok {
		return Litter{}, domain.ErrNotFound{Entity: domain.EntityAnimal, ID: animalID}
	}
	if animal.Sex != want {
		return Litter{}, domain.ErrParentSex{LitterID: litterID, AnimalID: animalID, Role: role, Sex: animal.Sex}
	}
	return tx.UpdateLitter(litterID, func(l *Litter) error {
		id := animalID
		set(l, &id)
		return nil
	})
}

// AttachDam sets the litter's dam. Only female animals are accepted.
func (tx *transaction) AttachDam(litterID, animalID string) (Litter, error) {
	return tx.attachParent(litterID, animalID, "dam", domain.SexFemale, func(l *Litter, id *string) { l.DamID = id })
}

// DetachDam clears the litter's dam.
func (tx *transaction) DetachDam(litterID string) (Litter, error) {
	return tx.UpdateLitter(litterID, func(l *Litter) error {
		l.DamID = nil
		return nil
	})
}

// AttachSire sets the litter's sire. Only male animals are accepted.
func (tx *transaction) AttachSire(litterID, animalID string) (Litter, error) {
	return tx.attachParent(litterID, animalID, "sire", domain.SexMale, func(l *Litter, id *string) { l.SireID = id })
}

// DetachSire clears the litter's sire.
func (tx *transaction) DetachSire(litterID string) (Litter, error) {
	return tx.UpdateLitter(litterID, func(l *Litter) error {
		l.SireID = nil
		return nil
	})
}

// AddOffspring appends an animal to the litter's offspring.
func (tx *transaction) AddOffspring(litterID, animalID string) (Litter, error) {
	if _, ok := tx.state.animals[animalID]; !ok {
		return Litter{}, domain.ErrNotFound{Entity: domain.EntityAnimal, ID: animalID}
	}
	return tx.UpdateLitter(litterID, func(l *Litter) error {
		if containsString(l.OffspringIDs, animalID) {
			return fmt.Errorf("animal %q already in litter %q", animalID, litterID)
		}
		l.OffspringIDs = append(l.OffspringIDs, animalID)
		return nil
	})
}

// RemoveOffspring removes an animal from the litter's offspring.
func (tx *transaction) RemoveOffspring(litterID, animalID string) (Litter, error) {
	return tx.UpdateLitter(litterID, func(l *Litter) error {
		out := l.OffspringIDs[:0]
		for _, id := range l.OffspringIDs {
			if id != animalID {
				out = append(out, id)
			}
		}
		l.OffspringIDs = out
		return nil
	})
}

// CreateOwner stores a new owner.
func (tx *transaction) CreateOwner(o Owner) (Owner, error) {
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if _, exists := tx.state.owners[o.ID]; exists {
		return Owner{}, fmt.Errorf("owner %q already exists", o.ID)
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.owners[o.ID] = o
	tx.recordChange(Change{Entity: domain.EntityOwner, Action: domain.ActionCreate, After: o})
	return o, nil
}

// UpdateOwner mutates an existing owner.
func (tx *transaction) UpdateOwner(id string, mutator func(*Owner) error) (Owner, error) {
	current, ok := tx.state.owners[id]
	if !ok {
		return Owner{}, domain.ErrNotFound{Entity: domain.EntityOwner, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Owner{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.owners[id] = current
	tx.recordChange(Change{Entity: domain.EntityOwner, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// Read helpers ---------------------------------------------------------------

// GetAnimal retrieves an animal by ID from committed state.
func (s *Store) GetAnimal(id string) (Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.animals[id]
	if !ok {
		return Animal{}, false
	}
	return cloneAnimal(a), true
}

// ListAnimals returns all animals from committed state.
func (s *Store) ListAnimals() []Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedAnimals(s.state.animals)
}

// GetLitter retrieves a litter by ID from committed state.
func (s *Store) GetLitter(id string) (Litter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.litters[id]
	if !ok {
		return Litter{}, false
	}
	return cloneLitter(l), true
}

// ListLitters returns all litters from committed state.
func (s *Store) ListLitters() []Litter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedLitters(s.state.litters)
}

// ListOwners returns all owners from committed state.
func (s *Store) ListOwners() []Owner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedOwners(s.state.owners)
}

func sortedAnimals(in map[string]Animal) []Animal {
	out := make([]Animal, 0, len(in))
	for _, a := range in {
		out = append(out, cloneAnimal(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedLitters(in map[string]Litter) []Litter {
	out := make([]Litter, 0, len(in))
	for _, l := range in {
		out = append(out, cloneLitter(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedOwners(in map[string]Owner) []Owner {
	out := make([]Owner, 0, len(in))
	for _, o := range in {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
