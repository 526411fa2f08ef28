// Package taxonomy holds the urgency tiers, their SLAs, and the subcategories
// the classifier is allowed to emit. A Registry is immutable once built and is
// shared by prompt rendering and response validation.
package taxonomy

import (
	"errors"
	"fmt"
)

// Urgency is a triage tier.
type Urgency string

const (
	High   Urgency = "High"
	Medium Urgency = "Medium"
	Low    Urgency = "Low"
)

// SLA is the response-time commitment attached to a tier.
type SLA string

const (
	SLAImmediate SLA = "Immediate"
	SLA24Hours   SLA = "24 hours"
	SLA48Hours   SLA = "48 hours"
)

// Subcategory is a fine-grained label with the text the model uses to
// disambiguate it from its neighbours.
type Subcategory struct {
	Name  string `json:"name"`
	Rules string `json:"rules"`
}

// Tier groups subcategories under one urgency level.
type Tier struct {
	Urgency       Urgency       `json:"urgency"`
	SLA           SLA           `json:"sla"`
	Description   string        `json:"description"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Registry is the validated, read-only view of a taxonomy.
type Registry struct {
	tiers  []Tier
	index  map[Urgency]int
	tierOf map[string]Urgency
	names  []string
}

// New validates tiers and builds the derived lookups. Every tier needs at
// least one subcategory and a subcategory name may appear in exactly one tier.
func New(tiers []Tier) (*Registry, error) {
	if len(tiers) == 0 {
		return nil, errors.New("taxonomy: no tiers")
	}

	r := &Registry{
		tiers:  make([]Tier, 0, len(tiers)),
		index:  make(map[Urgency]int, len(tiers)),
		tierOf: make(map[string]Urgency),
	}

	var errs []error
	for _, t := range tiers {
		if t.Urgency == "" {
			errs = append(errs, errors.New("taxonomy: tier with empty urgency"))
			continue
		}
		if _, dup := r.index[t.Urgency]; dup {
			errs = append(errs, fmt.Errorf("taxonomy: duplicate tier %q", t.Urgency))
			continue
		}
		if t.SLA == "" {
			errs = append(errs, fmt.Errorf("taxonomy: tier %q has no SLA", t.Urgency))
		}
		if len(t.Subcategories) == 0 {
			errs = append(errs, fmt.Errorf("taxonomy: tier %q has no subcategories", t.Urgency))
		}

		cp := t
		cp.Subcategories = append([]Subcategory(nil), t.Subcategories...)
		for _, s := range cp.Subcategories {
			if s.Name == "" {
				errs = append(errs, fmt.Errorf("taxonomy: tier %q has an unnamed subcategory", t.Urgency))
				continue
			}
			if owner, dup := r.tierOf[s.Name]; dup {
				errs = append(errs, fmt.Errorf("taxonomy: subcategory %q listed under both %q and %q", s.Name, owner, t.Urgency))
				continue
			}
			r.tierOf[s.Name] = t.Urgency
			r.names = append(r.names, s.Name)
		}

		r.index[t.Urgency] = len(r.tiers)
		r.tiers = append(r.tiers, cp)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// MustNew is New for static data; it panics on an invalid taxonomy.
func MustNew(tiers []Tier) *Registry {
	r, err := New(tiers)
	if err != nil {
		panic(err)
	}
	return r
}

// Tiers returns the tiers in declaration order. The result is a deep copy.
func (r *Registry) Tiers() []Tier {
	out := make([]Tier, len(r.tiers))
	for i, t := range r.tiers {
		out[i] = t
		out[i].Subcategories = append([]Subcategory(nil), t.Subcategories...)
	}
	return out
}

// Tier returns the tier for u.
func (r *Registry) Tier(u Urgency) (Tier, bool) {
	i, ok := r.index[u]
	if !ok {
		return Tier{}, false
	}
	t := r.tiers[i]
	t.Subcategories = append([]Subcategory(nil), t.Subcategories...)
	return t, true
}

// ValidUrgency reports whether u names a known tier.
func (r *Registry) ValidUrgency(u Urgency) bool {
	_, ok := r.index[u]
	return ok
}

// ValidSubcategory reports whether name is a known subcategory.
func (r *Registry) ValidSubcategory(name string) bool {
	_, ok := r.tierOf[name]
	return ok
}

// TierOf returns the tier a subcategory belongs to.
func (r *Registry) TierOf(subcategory string) (Urgency, bool) {
	u, ok := r.tierOf[subcategory]
	return u, ok
}

// SLA returns the SLA of tier u, or "" if u is unknown.
func (r *Registry) SLA(u Urgency) SLA {
	i, ok := r.index[u]
	if !ok {
		return ""
	}
	return r.tiers[i].SLA
}

// FirstSubcategory returns the first subcategory declared under u.
func (r *Registry) FirstSubcategory(u Urgency) (string, bool) {
	i, ok := r.index[u]
	if !ok {
		return "", false
	}
	return r.tiers[i].Subcategories[0].Name, true
}

// Subcategories returns every subcategory name in declaration order.
func (r *Registry) Subcategories() []string {
	return append([]string(nil), r.names...)
}
