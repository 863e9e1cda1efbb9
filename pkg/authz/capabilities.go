package authz

// Capabilities is the effective permission set of an actor, resolved once per
// request from the actor's roles.
type Capabilities struct {
	all   bool
	perms map[Permission]struct{}
}

func NewCapabilities(perms ...Permission) Capabilities {
	c := Capabilities{perms: make(map[Permission]struct{}, len(perms))}
	for _, p := range perms {
		if p == Wildcard {
			c.all = true
			continue
		}
		c.perms[p] = struct{}{}
	}
	return c
}

func (c Capabilities) Has(p Permission) bool {
	if c.all {
		return true
	}
	_, ok := c.perms[p]
	return ok
}

func (c Capabilities) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if c.Has(p) {
			return true
		}
	}
	return false
}

// List returns the granted permissions; a wildcard set expands to All.
func (c Capabilities) List() []Permission {
	if c.all {
		return All()
	}
	out := make([]Permission, 0, len(c.perms))
	for _, p := range All() {
		if _, ok := c.perms[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
