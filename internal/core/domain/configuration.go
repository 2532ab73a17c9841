package domain

// Configuration is one user's car configuration: exactly one model plus a
// duplicate-free ordered list of accessory ids. A user has at most one.
type Configuration struct {
	Owner       int64
	ModelID     string
	Accessories []string
}

// Holds reports whether the accessory is already part of the configuration.
func (c Configuration) Holds(accessoryID string) bool {
	for _, id := range c.Accessories {
		if id == accessoryID {
			return true
		}
	}
	return false
}

// User is the authenticated subject a configuration belongs to. Qualified is
// the coarse trust signal forwarded to the estimation service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Qualified    bool
}
