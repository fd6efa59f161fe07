package core

import (
	"breederbook/pkg/domain"
	"context"
	"fmt"
)

const litterIntegrityName = "litter_integrity"

// LitterIntegrityRule enforces parent and offspring constraints on litters
// touched by a transaction.
func LitterIntegrityRule() domain.Rule {
	return litterIntegrityRule{}
}

type litterIntegrityRule struct{}

func (litterIntegrityRule) Name() string { return litterIntegrityName }

func (litterIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	touched := make(map[string]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityLitter || change.After == nil {
			continue
		}
		if litter, ok := change.After.(domain.Litter); ok {
			touched[litter.ID] = struct{}{}
		}
	}
	if len(touched) == 0 {
		return res, nil
	}

	membership := make(map[string][]string)
	for _, litter := range view.ListLitters() {
		for _, id := range litter.OffspringIDs {
			membership[id] = append(membership[id], litter.ID)
		}
	}

	for _, litter := range view.ListLitters() {
		if _, ok := touched[litter.ID]; !ok {
			continue
		}
		evaluateLitter(&res, litter, view, membership)
	}
	return res, nil
}

func evaluateLitter(res *domain.Result, litter domain.Litter, view domain.RuleView, membership map[string][]string) {
	parents := make(map[string]string, 2)
	for _, p := range []struct {
		role string
		id   *string
	}{{"dam", litter.DamID}, {"sire", litter.SireID}} {
		if p.id == nil || *p.id == "" {
			continue
		}
		parents[*p.id] = p.role
		if _, ok := view.FindAnimal(*p.id); !ok {
			res.Violations = append(res.Violations, litterViolation(litter.ID, fmt.Sprintf("litter %s references missing %s %s", litter.ID, p.role, *p.id)))
		}
	}
	if litter.DamID != nil && litter.SireID != nil && *litter.DamID == *litter.SireID {
		res.Violations = append(res.Violations, litterViolation(litter.ID, fmt.Sprintf("litter %s uses animal %s as both dam and sire", litter.ID, *litter.DamID)))
	}

	seen := make(map[string]struct{}, len(litter.OffspringIDs))
	for _, id := range litter.OffspringIDs {
		if _, dup := seen[id]; dup {
			res.Violations = append(res.Violations, litterViolation(litter.ID, fmt.Sprintf("litter %s lists offspring %s multiple times", litter.ID, id)))
			continue
		}
		seen[id] = struct{}{}
		if role, ok := parents[id]; ok {
			res.Violations = append(res.Violations, litterViolation(litter.ID, fmt.Sprintf("litter %s lists its %s %s as offspring", litter.ID, role, id)))
		}
		if _, ok := view.FindAnimal(id); !ok {
			res.Violations = append(res.Violations, litterViolation(litter.ID, fmt.Sprintf("litter %s references missing offspring %s", litter.ID, id)))
		}
		for _, other := range membership[id] {
			if other != litter.ID {
				res.Violations = append(res.Violations, litterViolation(litter.ID, fmt.Sprintf("animal %s is offspring of both litter %s and litter %s", id, litter.ID, other)))
			}
		}
	}
}

func litterViolation(litterID, message string) domain.Violation {
	return domain.Violation{
		Rule:     litterIntegrityName,
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityLitter,
		EntityID: litterID,
	}
}
