// Package engine is the single rule module shared by the optimistic
// (pre-submit) and authoritative (commit-time) validation paths. Every
// function is pure: given the same catalog and inventory snapshot, the same
// candidate always yields the same violation list.
package engine

import (
	"fmt"
	"strings"

	"github.com/rmarch/car-config/internal/core/catalog"
	"github.com/rmarch/car-config/internal/core/domain"
)

// Snapshot is a point-in-time view of the shared inventory plus the acting
// user's committed selections. Held selections never fail the availability
// check: keeping what you already have frees no stock and takes none.
type Snapshot struct {
	Availability map[string]int
	Held         map[string]bool
}

func (s Snapshot) remaining(id string) (int, error) {
	n := s.Availability[id]
	if n < 0 {
		return 0, fmt.Errorf("%w: negative availability %d for accessory %q",
			domain.ErrDataIntegrity, n, id)
	}
	return n, nil
}

// CheckAddition validates adding one accessory to the configuration. The
// returned violations are ordered capacity, mandatory, incompatibility,
// availability; an optimistic caller surfaces the first one, the
// authoritative path keeps them all.
func CheckAddition(cat *catalog.Catalog, snap Snapshot, cfg domain.Configuration, id string) ([]domain.Violation, error) {
	acc, ok := cat.AccessoryByID(id)
	if !ok {
		return []domain.Violation{{
			Code:   domain.ViolationUnknownAccessory,
			Reason: fmt.Sprintf("accessory %q does not exist", id),
		}}, nil
	}

	if cfg.Holds(id) {
		// Re-adding a held accessory is a no-op on the commit path, so it
		// counts against no rule, the capacity cap included.
		return nil, nil
	}

	var out []domain.Violation

	max, ok := cat.MaxAccessoriesFor(cfg.ModelID)
	if !ok {
		out = append(out, domain.Violation{
			Code:   domain.ViolationNoModel,
			Reason: "no model selected, accessories cannot be added",
		})
	} else if len(cfg.Accessories)+1 > max {
		out = append(out, domain.Violation{
			Code:   domain.ViolationMaxAccessories,
			Reason: fmt.Sprintf("adding %q would exceed the maximum number of accessories for this model", acc.Name),
		})
	}

	if acc.Mandatory != "" && !cfg.Holds(acc.Mandatory) {
		out = append(out, mandatoryViolation(cat, acc))
	}

	if v, conflict := incompatViolation(cat, acc, cfg.Accessories); conflict {
		out = append(out, v)
	}

	if !snap.Held[id] {
		n, err := snap.remaining(id)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			out = append(out, domain.Violation{
				Code:   domain.ViolationAvailability,
				Reason: fmt.Sprintf("accessory %q has reached the maximum amount of usage", acc.Name),
			})
		}
	}

	return out, nil
}

// CheckRemoval validates removing one accessory. Removal frees stock, so
// the only rule is dependency protection: no remaining accessory may still
// require the one being removed.
func CheckRemoval(cat *catalog.Catalog, cfg domain.Configuration, id string) []domain.Violation {
	var needy []string
	for _, other := range cfg.Accessories {
		if other == id {
			continue
		}
		a, ok := cat.AccessoryByID(other)
		if ok && a.Mandatory == id {
			needy = append(needy, fmt.Sprintf("%s: %s", a.ID, a.Name))
		}
	}
	if len(needy) == 0 {
		return nil
	}
	return []domain.Violation{{
		Code:   domain.ViolationDependents,
		Reason: fmt.Sprintf("accessory %q is needed by %s", id, strings.Join(needy, ", ")),
	}}
}

// ValidateConfiguration validates a whole candidate set, as the server does
// right before committing. Each accessory is checked as an addition against
// the running accumulation so intra-set incompatibilities are caught, while
// mandatory links may be satisfied anywhere in the final set. All
// violations are collected, never just the first.
func ValidateConfiguration(cat *catalog.Catalog, snap Snapshot, candidate domain.Configuration) ([]domain.Violation, error) {
	var out []domain.Violation

	max, modelKnown := cat.MaxAccessoriesFor(candidate.ModelID)
	switch {
	case candidate.ModelID == "":
		out = append(out, domain.Violation{
			Code:   domain.ViolationNoModel,
			Reason: "no model selected",
		})
	case !modelKnown:
		out = append(out, domain.Violation{
			Code:   domain.ViolationUnknownModel,
			Reason: fmt.Sprintf("model %q does not exist", candidate.ModelID),
		})
	case len(candidate.Accessories) > max:
		out = append(out, domain.Violation{
			Code:   domain.ViolationMaxAccessories,
			Reason: fmt.Sprintf("model %q allows at most %d accessories", candidate.ModelID, max),
		})
	}

	accumulated := make([]string, 0, len(candidate.Accessories))
	for _, id := range candidate.Accessories {
		acc, ok := cat.AccessoryByID(id)
		if !ok {
			out = append(out, domain.Violation{
				Code:   domain.ViolationUnknownAccessory,
				Reason: fmt.Sprintf("accessory %q does not exist", id),
			})
			continue
		}

		if acc.Mandatory != "" && !candidate.Holds(acc.Mandatory) {
			out = append(out, mandatoryViolation(cat, acc))
		}

		if v, conflict := incompatViolation(cat, acc, accumulated); conflict {
			out = append(out, v)
		}

		if !snap.Held[id] {
			n, err := snap.remaining(id)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				out = append(out, domain.Violation{
					Code:   domain.ViolationAvailability,
					Reason: fmt.Sprintf("accessory %q has reached the maximum amount of usage", acc.Name),
				})
			}
		}

		accumulated = append(accumulated, id)
	}

	return out, nil
}

func mandatoryViolation(cat *catalog.Catalog, acc domain.Accessory) domain.Violation {
	name := "unknown accessory"
	if dep, ok := cat.AccessoryByID(acc.Mandatory); ok {
		name = dep.Name
	}
	return domain.Violation{
		Code:   domain.ViolationMandatory,
		Reason: fmt.Sprintf("accessory %q requires %s: %s", acc.Name, acc.Mandatory, name),
	}
}

// incompatViolation collects every selected accessory conflicting with acc
// into a single violation, mirroring the user-facing "incompatible with
// {list}" rule. The catalog relation is already symmetrically closed.
func incompatViolation(cat *catalog.Catalog, acc domain.Accessory, selected []string) (domain.Violation, bool) {
	present := make(map[string]bool, len(selected))
	for _, id := range selected {
		present[id] = true
	}

	var conflicts []string
	for _, other := range cat.IncompatibleWith(acc.ID) {
		if present[other] {
			name := "unknown accessory"
			if a, ok := cat.AccessoryByID(other); ok {
				name = a.Name
			}
			conflicts = append(conflicts, fmt.Sprintf("%s: %s", other, name))
		}
	}
	if len(conflicts) == 0 {
		return domain.Violation{}, false
	}
	return domain.Violation{
		Code:   domain.ViolationIncompatible,
		Reason: fmt.Sprintf("accessory %q is incompatible with %s", acc.Name, strings.Join(conflicts, ", ")),
	}, true
}
