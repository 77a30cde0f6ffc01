package roles

import "fmt"

// fallbacks maps each role to the behavior tried when its own has nothing to do.
var fallbacks = map[Role]Role{
	HarvesterSpawn:   Harvester,
	Harvester:        Builder,
	HarvesterMineral: Builder,
	Builder:          Repairer,
	Repairer:         Upgrader,
}

// Next is the fallback of r, if any.
func Next(r Role) (Role, bool) {
	n, ok := fallbacks[r]
	return n, ok
}

// Chain lists r followed by its fallbacks.
func Chain(r Role) []Role {
	out := []Role{r}
	seen := map[Role]bool{r: true}
	for {
		n, ok := fallbacks[r]
		if !ok || seen[n] {
			return out
		}
		seen[n] = true
		out = append(out, n)
		r = n
	}
}

// ValidateFallbacks checks that every chain terminates and names only known roles.
func ValidateFallbacks() error {
	for _, start := range All {
		seen := map[Role]bool{start: true}
		r := start
		for {
			n, ok := fallbacks[r]
			if !ok {
				break
			}
			if _, known := roleNames[n]; !known {
				return fmt.Errorf("fallback of %s is not a known role", r)
			}
			if seen[n] {
				return fmt.Errorf("fallback cycle from %s through %s", start, n)
			}
			seen[n] = true
			r = n
		}
	}
	return nil
}
