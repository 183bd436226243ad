package services

// RoutingPolicy carries the tunable routing constants so they can be adjusted
// or unit-tested per municipality instead of living as inline literals.
type RoutingPolicy struct {
	Version                string
	PreventionBusinessDays int
	DefaultDepartmentCount int
	DirectorPriorityQuorum int
	// DirectorKeywords is the legacy escalation fallback: a procedure type
	// containing any of these (case-insensitive) requires director review
	// even when the routing table has no matching rows.
	DirectorKeywords []string
}

// DefaultRoutingPolicy returns the policy currently in force.
func DefaultRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{
		Version:                "2025-1",
		PreventionBusinessDays: 15,
		DefaultDepartmentCount: 2,
		DirectorPriorityQuorum: 3,
		DirectorKeywords: []string{
			"construction",
			"construccion",
			"edificacion",
			"ampliacion",
			"expansion",
			"demolicion",
		},
	}
}
