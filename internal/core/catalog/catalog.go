// Package catalog holds the read-only rule set every validation runs
// against: accessory and model definitions, the mandatory-dependency links
// and the incompatibility relation. It is built wholesale at load time and
// never mutated afterwards.
package catalog

import (
	"fmt"
	"sort"

	"github.com/rmarch/car-config/internal/core/domain"
)

type Catalog struct {
	accessories map[string]domain.Accessory
	models      map[string]domain.Model

	// incompat is the symmetric closure of the declared incompatibility
	// edges: if A declares B, both incompat[A] and incompat[B] carry the
	// pair. Stored sorted for deterministic violation messages.
	incompat map[string][]string

	accessoryOrder []string
	modelOrder     []string
}

// New validates the definitions and builds the lookup structure. Dangling
// mandatory or incompatibility references and mandatory cycles are
// data-integrity faults and fail the load.
func New(models []domain.Model, accessories []domain.Accessory) (*Catalog, error) {
	c := &Catalog{
		accessories: make(map[string]domain.Accessory, len(accessories)),
		models:      make(map[string]domain.Model, len(models)),
		incompat:    make(map[string][]string),
	}

	for _, m := range models {
		if _, dup := c.models[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate model %q", domain.ErrDataIntegrity, m.ID)
		}
		c.models[m.ID] = m
		c.modelOrder = append(c.modelOrder, m.ID)
	}
	for _, a := range accessories {
		if _, dup := c.accessories[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate accessory %q", domain.ErrDataIntegrity, a.ID)
		}
		c.accessories[a.ID] = a
		c.accessoryOrder = append(c.accessoryOrder, a.ID)
	}

	pairs := make(map[[2]string]bool)
	for _, a := range accessories {
		if a.Mandatory != "" {
			if _, ok := c.accessories[a.Mandatory]; !ok {
				return nil, fmt.Errorf("%w: accessory %q requires unknown accessory %q",
					domain.ErrDataIntegrity, a.ID, a.Mandatory)
			}
		}
		for _, other := range a.Incompat {
			if _, ok := c.accessories[other]; !ok {
				return nil, fmt.Errorf("%w: accessory %q incompatible with unknown accessory %q",
					domain.ErrDataIntegrity, a.ID, other)
			}
			if other == a.ID {
				return nil, fmt.Errorf("%w: accessory %q incompatible with itself",
					domain.ErrDataIntegrity, a.ID)
			}
			lo, hi := a.ID, other
			if hi < lo {
				lo, hi = hi, lo
			}
			pairs[[2]string{lo, hi}] = true
		}
	}

	// Close the declared edges symmetrically.
	for p := range pairs {
		c.incompat[p[0]] = append(c.incompat[p[0]], p[1])
		c.incompat[p[1]] = append(c.incompat[p[1]], p[0])
	}
	for id := range c.incompat {
		sort.Strings(c.incompat[id])
	}

	if err := c.checkMandatoryCycles(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkMandatoryCycles walks each mandatory chain. A cycle would make every
// member accessory impossible to add starting from an empty configuration.
func (c *Catalog) checkMandatoryCycles() error {
	for _, start := range c.accessoryOrder {
		seen := map[string]bool{}
		for id := start; id != ""; id = c.accessories[id].Mandatory {
			if seen[id] {
				return fmt.Errorf("%w: mandatory cycle through accessory %q",
					domain.ErrDataIntegrity, id)
			}
			seen[id] = true
		}
	}
	return nil
}

func (c *Catalog) AccessoryByID(id string) (domain.Accessory, bool) {
	a, ok := c.accessories[id]
	return a, ok
}

func (c *Catalog) ModelByID(id string) (domain.Model, bool) {
	m, ok := c.models[id]
	return m, ok
}

// MaxAccessoriesFor returns the accessory cap for the model, or false when
// the model is unknown.
func (c *Catalog) MaxAccessoriesFor(modelID string) (int, bool) {
	m, ok := c.models[modelID]
	if !ok {
		return 0, false
	}
	return m.MaxAccessories, true
}

// IncompatibleWith returns every accessory that may not coexist with the
// given one, in either declared direction, sorted by id.
func (c *Catalog) IncompatibleWith(id string) []string {
	return c.incompat[id]
}

// Accessories returns all accessories in definition order.
func (c *Catalog) Accessories() []domain.Accessory {
	out := make([]domain.Accessory, 0, len(c.accessoryOrder))
	for _, id := range c.accessoryOrder {
		out = append(out, c.accessories[id])
	}
	return out
}

// Models returns all models in definition order.
func (c *Catalog) Models() []domain.Model {
	out := make([]domain.Model, 0, len(c.modelOrder))
	for _, id := range c.modelOrder {
		out = append(out, c.models[id])
	}
	return out
}
