package rules

import "slices"

// Member is one label of a group.
type Member struct {
	Name             string `json:"name" yaml:"name"`
	IsDefault        bool   `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
	IsClosedIncluded bool   `json:"isClosedIncluded,omitempty" yaml:"isClosedIncluded,omitempty"`
}

// Group is a set of mutually exclusive labels.
type Group struct {
	Spec    string   `json:"spec" yaml:"spec"`
	Members []Member `json:"members" yaml:"members"`
}

// Names returns the member labels in configuration order.
func (g Group) Names() []string {
	names := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		names = append(names, m.Name)
	}
	return names
}

// Contains reports whether label is a member of the group.
func (g Group) Contains(label string) bool {
	return slices.ContainsFunc(g.Members, func(m Member) bool { return m.Name == label })
}

// Default returns the default member, if one is configured.
func (g Group) Default() (string, bool) {
	for _, m := range g.Members {
		if m.IsDefault {
			return m.Name, true
		}
	}
	return "", false
}

// IncludesClosed reports whether the group is evaluated on closed issues.
func (g Group) IncludesClosed() bool {
	return slices.ContainsFunc(g.Members, func(m Member) bool { return m.IsClosedIncluded })
}

// ClosedIncluded reports whether label is a closed-included member.
func (g Group) ClosedIncluded(label string) bool {
	return slices.ContainsFunc(g.Members, func(m Member) bool {
		return m.Name == label && m.IsClosedIncluded
	})
}

// Category keeps Category present exactly when one of Expected is present.
type Category struct {
	Spec     string   `json:"spec" yaml:"spec"`
	Expected []string `json:"expected" yaml:"expected"`
	Category string   `json:"category" yaml:"category"`
}

// Matches reports whether any expected label is in labels.
func (c Category) Matches(labels []string) bool {
	return slices.ContainsFunc(c.Expected, func(l string) bool { return slices.Contains(labels, l) })
}

// Set is the complete rule configuration for label reconciliation.
type Set struct {
	Groups       []Group    `json:"groups" yaml:"groups"`
	Categories   []Category `json:"categories" yaml:"categories"`
	ClosedLabels []string   `json:"closedLabels" yaml:"closedLabels"`
}

// ReferencedLabels returns the distinct label names referenced by all rules,
// in first-seen order.
func (s Set) ReferencedLabels() []string {
	var out []string
	add := func(l string) {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	for _, g := range s.Groups {
		for _, m := range g.Members {
			add(m.Name)
		}
	}
	for _, c := range s.Categories {
		for _, l := range c.Expected {
			add(l)
		}
		add(c.Category)
	}
	for _, l := range s.ClosedLabels {
		add(l)
	}
	return out
}

// IsEmpty reports whether the set contains no rules at all.
func (s Set) IsEmpty() bool {
	return len(s.Groups) == 0 && len(s.Categories) == 0 && len(s.ClosedLabels) == 0
}

// ClosedIncluded reports whether any group marks label as kept on closed issues.
func (s Set) ClosedIncluded(label string) bool {
	return slices.ContainsFunc(s.Groups, func(g Group) bool { return g.ClosedIncluded(label) })
}
