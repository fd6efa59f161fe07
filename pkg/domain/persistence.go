package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. It groups the animal, litter, and
// owner repositories.
type Transaction interface {
	Snapshot() TransactionView
	CreateAnimal(Animal) (Animal, error)
	UpdateAnimal(id string, mutator func(*Animal) error) (Animal, error)
	AttachOwner(animalID, ownerID string) (Animal, error)
	CreateLitter(Litter) (Litter, error)
	UpdateLitter(id string, mutator func(*Litter) error) (Litter, error)
	AttachDam(litterID, animalID string) (Litter, error)
	DetachDam(litterID string) (Litter, error)
	AttachSire(litterID, animalID string) (Litter, error)
	DetachSire(litterID string) (Litter, error)
	AddOffspring(litterID, animalID string) (Litter, error)
	RemoveOffspring(litterID, animalID string) (Litter, error)
	CreateOwner(Owner) (Owner, error)
	UpdateOwner(id string, mutator func(*Owner) error) (Owner, error)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListAnimals() []Animal
	ListLitters() []Litter
	ListOwners() []Owner
	FindAnimal(id string) (Animal, bool)
	FindLitter(id string) (Litter, bool)
	FindOwner(id string) (Owner, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetAnimal(id string) (Animal, bool)
	ListAnimals() []Animal
	GetLitter(id string) (Litter, bool)
	ListLitters() []Litter
	ListOwners() []Owner
}
