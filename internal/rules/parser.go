package rules

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultSuffix        = "*"
	closedIncludedSuffix = "+"
)

// ErrInvalidRule is wrapped by every ParseError.
var ErrInvalidRule = errors.New("invalid rule")

// ParseError describes a rule string that could not be parsed.
type ParseError struct {
	Kind   string // "group" or "category"
	Spec   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s rule %q: %s", e.Kind, e.Spec, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidRule
}

func splitTokens(spec string) []string {
	var tokens []string
	for _, raw := range strings.Split(spec, ",") {
		if tok := strings.TrimSpace(raw); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ParseGroup parses one label-group definition such as "a,b*,c+".
func ParseGroup(spec string) (Group, error) {
	group := Group{Spec: spec}
	hasDefault := false

	for _, tok := range splitTokens(spec) {
		m := Member{}
		for {
			if name, ok := strings.CutSuffix(tok, defaultSuffix); ok {
				m.IsDefault = true
				tok = name
				continue
			}
			if name, ok := strings.CutSuffix(tok, closedIncludedSuffix); ok {
				m.IsClosedIncluded = true
				tok = name
				continue
			}
			break
		}
		m.Name = strings.TrimSpace(tok)
		if m.Name == "" {
			return Group{}, &ParseError{Kind: "group", Spec: spec, Reason: "empty label name"}
		}
		if group.Contains(m.Name) {
			return Group{}, &ParseError{Kind: "group", Spec: spec, Reason: fmt.Sprintf("label %q listed twice", m.Name)}
		}
		if m.IsDefault {
			if hasDefault {
				return Group{}, &ParseError{Kind: "group", Spec: spec, Reason: "more than one default label"}
			}
			hasDefault = true
		}
		group.Members = append(group.Members, m)
	}

	if len(group.Members) == 0 {
		return Group{}, &ParseError{Kind: "group", Spec: spec, Reason: "no labels"}
	}
	return group, nil
}

// ParseCategory parses one label-category definition. The last label is
// the category label.
func ParseCategory(spec string) (Category, error) {
	tokens := splitTokens(spec)
	if len(tokens) < 2 {
		return Category{}, &ParseError{Kind: "category", Spec: spec, Reason: "at least two labels are required"}
	}

	category := tokens[len(tokens)-1]
	expected := tokens[:len(tokens)-1]
	for _, l := range expected {
		if l == category {
			return Category{}, &ParseError{Kind: "category", Spec: spec, Reason: fmt.Sprintf("category label %q is also an expected label", category)}
		}
	}
	return Category{Spec: spec, Expected: expected, Category: category}, nil
}

// ParseGroups parses every spec, returning the valid groups and a joined
// error for the skipped ones.
func ParseGroups(specs []string) ([]Group, error) {
	var (
		groups []Group
		errs   []error
	)
	for _, spec := range specs {
		g, err := ParseGroup(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		groups = append(groups, g)
	}
	return groups, errors.Join(errs...)
}

// ParseCategories parses every spec, returning the valid categories and a
// joined error for the skipped ones.
func ParseCategories(specs []string) ([]Category, error) {
	var (
		categories []Category
		errs       []error
	)
	for _, spec := range specs {
		c, err := ParseCategory(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		categories = append(categories, c)
	}
	return categories, errors.Join(errs...)
}

// Parse builds a Set from raw configuration strings. Invalid group and
// category entries are skipped; the returned error lists them.
func Parse(groupSpecs, categorySpecs, closedLabels []string) (Set, error) {
	groups, gerr := ParseGroups(groupSpecs)
	categories, cerr := ParseCategories(categorySpecs)

	var closed []string
	for _, l := range closedLabels {
		if l = strings.TrimSpace(l); l != "" {
			closed = append(closed, l)
		}
	}
	return Set{Groups: groups, Categories: categories, ClosedLabels: closed}, errors.Join(gerr, cerr)
}
