package domain

// Accessory is a catalog entry for a single accessory type. Capacity is the
// total stock shared across every user's configuration.
type Accessory struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Capacity    int

	// Mandatory, when non-empty, names the accessory that must already be
	// part of a configuration before this one can be added.
	Mandatory string

	// Incompat lists accessories that must never coexist with this one.
	// The relation is declared one-way in storage; the catalog closes it
	// symmetrically at load time.
	Incompat []string
}
