package category

import (
	"fmt"

	"ecttool/domain/core"
)

// Subcategory is one valid value of a clinical attribute.
type Subcategory struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Attribute is a clinical attribute (a cohort column) with its display order.
type Attribute struct {
	Key           string        `json:"key" yaml:"key"`
	Label         string        `json:"label" yaml:"label"`
	Subcategories []Subcategory `json:"subcategories" yaml:"subcategories"`
}

// Mode is a survival endpoint offered to users.
type Mode struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Catalog is the read-only category metadata injected into every analysis.
type Catalog struct {
	modes      []Mode
	attributes []Attribute
	byKey      map[string]int
	modeByKey  map[string]int
}

// NewCatalog validates and indexes the metadata. Attribute and subcategory
// order is kept exactly as given.
func NewCatalog(modes []Mode, attributes []Attribute) (*Catalog, error) {
	c := &Catalog{
		byKey:     make(map[string]int, len(attributes)),
		modeByKey: make(map[string]int, len(modes)),
	}

	for i, m := range modes {
		if m.Key == "" {
			return nil, core.NewInvalidInputError("mode", fmt.Sprintf("entry %d has no key", i+1))
		}
		if _, dup := c.modeByKey[m.Key]; dup {
			return nil, core.NewInvalidInputError("mode", fmt.Sprintf("duplicate key %q", m.Key))
		}
		if m.Label == "" {
			m.Label = m.Key
		}
		c.modeByKey[m.Key] = len(c.modes)
		c.modes = append(c.modes, m)
	}

	for i, a := range attributes {
		if a.Key == "" {
			return nil, core.NewInvalidInputError("attribute", fmt.Sprintf("entry %d has no key", i+1))
		}
		if _, dup := c.byKey[a.Key]; dup {
			return nil, core.NewInvalidInputError("attribute", fmt.Sprintf("duplicate key %q", a.Key))
		}
		if len(a.Subcategories) == 0 {
			return nil, core.NewInvalidInputError("attribute", fmt.Sprintf("%q has no subcategories", a.Key))
		}
		if a.Label == "" {
			a.Label = a.Key
		}
		seen := make(map[string]bool, len(a.Subcategories))
		subs := make([]Subcategory, len(a.Subcategories))
		for j, s := range a.Subcategories {
			if s.Value == "" {
				return nil, core.NewInvalidInputError("subcategory", fmt.Sprintf("%q entry %d has no value", a.Key, j+1))
			}
			if seen[s.Value] {
				return nil, core.NewInvalidInputError("subcategory", fmt.Sprintf("%q lists %q twice", a.Key, s.Value))
			}
			seen[s.Value] = true
			if s.Label == "" {
				s.Label = s.Value
			}
			subs[j] = s
		}
		a.Subcategories = subs
		c.byKey[a.Key] = len(c.attributes)
		c.attributes = append(c.attributes, a)
	}
	return c, nil
}

// Modes returns the survival modes in display order.
func (c *Catalog) Modes() []Mode {
	out := make([]Mode, len(c.modes))
	copy(out, c.modes)
	return out
}

// Mode looks up a survival mode by key.
func (c *Catalog) Mode(key string) (Mode, error) {
	i, ok := c.modeByKey[key]
	if !ok {
		return Mode{}, core.NewInvalidInputError("mode", fmt.Sprintf("unsupported survival mode %q", key))
	}
	return c.modes[i], nil
}

// Attributes returns every attribute in display order.
func (c *Catalog) Attributes() []Attribute {
	out := make([]Attribute, len(c.attributes))
	for i, a := range c.attributes {
		out[i] = a.clone()
	}
	return out
}

// Keys returns the attribute keys in display order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.attributes))
	for i, a := range c.attributes {
		out[i] = a.Key
	}
	return out
}

// Attribute looks up an attribute by key.
func (c *Catalog) Attribute(key string) (Attribute, error) {
	i, ok := c.byKey[key]
	if !ok {
		return Attribute{}, core.NewUnknownCategoryError("attribute", key)
	}
	return c.attributes[i].clone(), nil
}

// Order returns the subcategory values of an attribute in display order.
func (c *Catalog) Order(key string) ([]string, error) {
	a, err := c.Attribute(key)
	if err != nil {
		return nil, err
	}
	return a.Values(), nil
}

// Label returns the display label of an attribute.
func (c *Catalog) Label(key string) (string, error) {
	a, err := c.Attribute(key)
	if err != nil {
		return "", err
	}
	return a.Label, nil
}

// SubcategoryLabel returns the display label of one value of an attribute.
func (c *Catalog) SubcategoryLabel(key, value string) (string, error) {
	a, err := c.Attribute(key)
	if err != nil {
		return "", err
	}
	for _, s := range a.Subcategories {
		if s.Value == value {
			return s.Label, nil
		}
	}
	return "", core.NewUnknownCategoryError("subcategory", key+"="+value)
}

// CheckOrder verifies that every value of a caller-supplied order belongs to
// the attribute.
func (c *Catalog) CheckOrder(key string, order []string) error {
	a, err := c.Attribute(key)
	if err != nil {
		return err
	}
	for _, v := range order {
		if !a.Has(v) {
			return core.NewUnknownCategoryError("subcategory", key+"="+v)
		}
	}
	return nil
}

// Values returns the subcategory values in display order.
func (a Attribute) Values() []string {
	out := make([]string, len(a.Subcategories))
	for i, s := range a.Subcategories {
		out[i] = s.Value
	}
	return out
}

// Has reports whether value is a valid subcategory.
func (a Attribute) Has(value string) bool {
	for _, s := range a.Subcategories {
		if s.Value == value {
			return true
		}
	}
	return false
}

func (a Attribute) clone() Attribute {
	subs := make([]Subcategory, len(a.Subcategories))
	copy(subs, a.Subcategories)
	a.Subcategories = subs
	return a
}

// Present filters order down to the values for which present returns true,
// keeping the order.
func Present(order []string, present func(value string) bool) []string {
	var out []string
	for _, v := range order {
		if present(v) {
			out = append(out, v)
		}
	}
	return out
}
