// Package core wires breederbook's persistence, rules and document storage
// into the import service used by the command line tools.
package core

import "breederbook/pkg/domain"

type (
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	Rule        = domain.Rule
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(LitterIntegrityRule())
	return engine
}
