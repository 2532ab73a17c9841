package domain

// Model is a car model. MaxAccessories caps how many accessories can be
// combined with it in a single configuration.
type Model struct {
	ID             string
	Name           string
	Power          int
	Price          float64
	MaxAccessories int
}
