package part

import "fmt"

// TemplateID is a handle into a Catalog. Handles are stable for the life of
// the catalog; templates are never removed once defined.
type TemplateID int

// Template is an immutable part blueprint: a collision shape descriptor plus
// the connector set. Templates are loaded once at startup and never mutated.
type Template struct {
	Name       string
	Shape      ShapeSpec
	Connectors []Connector
}

// Catalog is the ordered registry of part templates. Selection commands walk
// it with wrap-around, so ordering is part of its contract.
type Catalog struct {
	templates []*Template
	names     map[string]TemplateID
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{names: make(map[string]TemplateID)}
}

// Define adds a template and returns its handle. The connector slice is
// copied so later mutation by the caller cannot reach the template.
func (c *Catalog) Define(name string, shape ShapeSpec, connectors []Connector) (TemplateID, error) {
	if name == "" {
		return 0, fmt.Errorf("template name must not be empty")
	}
	if _, exists := c.names[name]; exists {
		return 0, fmt.Errorf("template %q already defined", name)
	}

	tpl := &Template{
		Name:       name,
		Shape:      shape,
		Connectors: append([]Connector(nil), connectors...),
	}
	id := TemplateID(len(c.templates))
	c.templates = append(c.templates, tpl)
	c.names[name] = id
	return id, nil
}

// ByID returns the template with the given handle.
func (c *Catalog) ByID(id TemplateID) (*Template, bool) {
	if id < 0 || int(id) >= len(c.templates) {
		return nil, false
	}
	return c.templates[id], true
}

// ByName returns the handle for a named template.
func (c *Catalog) ByName(name string) (TemplateID, bool) {
	id, ok := c.names[name]
	return id, ok
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// Next returns the handle after id, wrapping to the first template.
func (c *Catalog) Next(id TemplateID) TemplateID {
	if len(c.templates) == 0 {
		return 0
	}
	return TemplateID((int(id) + 1) % len(c.templates))
}

// Prev returns the handle before id, wrapping to the last template.
func (c *Catalog) Prev(id TemplateID) TemplateID {
	n := len(c.templates)
	if n == 0 {
		return 0
	}
	return TemplateID((int(id) - 1 + n) % n)
}

// Names returns template names in definition order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.Name
	}
	return out
}
