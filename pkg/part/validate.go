package part

import "fmt"

// Severity indicates whether a validation finding blocks catalog loading
// or is merely advisory.
type Severity int

const (
	SeverityError   Severity = iota // blocks loading
	SeverityWarning                 // advisory
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation result for a template.
type Finding struct {
	Template TemplateID
	Name     string // template name, for diagnostics
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	if f.Name == "" {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] template %q: %s", f.Severity, f.Name, f.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []Finding
	Warnings []Finding
}

// Validate runs all catalog checks. Errors make the catalog unusable for
// placement: the session constructor refuses a catalog that fails here.
// The function is read-only and never mutates the catalog.
func Validate(c *Catalog) ValidationResult {
	var result ValidationResult

	if c == nil || c.Len() == 0 {
		result.Errors = append(result.Errors, Finding{
			Message:  "catalog defines no templates",
			Severity: SeverityError,
		})
		return result
	}

	for i, tpl := range c.templates {
		id := TemplateID(i)
		result.Errors = append(result.Errors, validateShape(id, tpl)...)
		errs, warns := validateConnectors(id, tpl)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
	}

	return result
}

// validateShape checks that a template's collision shape is present and has
// positive dimensions. A template without a resolvable shape fails closed at
// placement time, so it is rejected up front.
func validateShape(id TemplateID, tpl *Template) []Finding {
	var errs []Finding

	fail := func(msg string) {
		errs = append(errs, Finding{
			Template: id,
			Name:     tpl.Name,
			Message:  msg,
			Severity: SeverityError,
		})
	}

	switch s := tpl.Shape.(type) {
	case nil:
		fail("template has no collision shape")
	case BoxShape:
		if s.Dims.X <= 0 {
			fail(fmt.Sprintf("box dimension X is %.4f, must be positive", s.Dims.X))
		}
		if s.Dims.Y <= 0 {
			fail(fmt.Sprintf("box dimension Y is %.4f, must be positive", s.Dims.Y))
		}
		if s.Dims.Z <= 0 {
			fail(fmt.Sprintf("box dimension Z is %.4f, must be positive", s.Dims.Z))
		}
	case CylinderShape:
		if s.Diameter <= 0 {
			fail(fmt.Sprintf("cylinder diameter is %.4f, must be positive", s.Diameter))
		}
		if s.Length <= 0 {
			fail(fmt.Sprintf("cylinder length is %.4f, must be positive", s.Length))
		}
	default:
		fail(fmt.Sprintf("unsupported shape descriptor %T", tpl.Shape))
	}

	return errs
}

// connectorBoundsTolerance allows connectors to sit slightly proud of the
// shape surface without tripping the out-of-bounds warning.
const connectorBoundsTolerance = 1e-6

// validateConnectors checks axis tags and connector names (errors) and warns
// about connectors positioned outside the shape's bounding box, which
// usually indicates a typo in the catalog source.
func validateConnectors(id TemplateID, tpl *Template) (errs, warns []Finding) {
	seen := make(map[string]bool)

	for i, conn := range tpl.Connectors {
		if !conn.Axis.Valid() {
			errs = append(errs, Finding{
				Template: id,
				Name:     tpl.Name,
				Message:  fmt.Sprintf("connector %d has invalid axis tag %s", i, conn.Axis),
				Severity: SeverityError,
			})
		}

		if conn.Name != "" {
			if seen[conn.Name] {
				errs = append(errs, Finding{
					Template: id,
					Name:     tpl.Name,
					Message:  fmt.Sprintf("duplicate connector name %q", conn.Name),
					Severity: SeverityError,
				})
			}
			seen[conn.Name] = true
		}

		if tpl.Shape != nil {
			min, max := tpl.Shape.Bounds()
			p := conn.Local
			if p.X < min.X-connectorBoundsTolerance || p.X > max.X+connectorBoundsTolerance ||
				p.Y < min.Y-connectorBoundsTolerance || p.Y > max.Y+connectorBoundsTolerance ||
				p.Z < min.Z-connectorBoundsTolerance || p.Z > max.Z+connectorBoundsTolerance {
				warns = append(warns, Finding{
					Template: id,
					Name:     tpl.Name,
					Message:  fmt.Sprintf("connector %d at (%.2f, %.2f, %.2f) lies outside the shape bounds", i, p.X, p.Y, p.Z),
					Severity: SeverityWarning,
				})
			}
		}
	}

	return errs, warns
}
