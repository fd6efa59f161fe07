package domain

import (
	"context"
	"fmt"
)

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView interface {
	ListAnimals() []Animal
	ListLitters() []Litter
	ListOwners() []Owner
	FindAnimal(id string) (Animal, bool)
	FindLitter(id string) (Litter, bool)
	FindOwner(id string) (Owner, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine. Registering a rule whose name is
// already present is a no-op.
func (e *RulesEngine) Register(rule Rule) {
	for _, existing := range e.rules {
		if existing.Name() == rule.Name() {
			return
		}
	}
	e.rules = append(e.rules, rule)
}

// RuleNames lists registered rules in evaluation order.
func (e *RulesEngine) RuleNames() []string {
	names := make([]string, 0, len(e.rules))
	for _, rule := range e.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}
