package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/tenon/pkg/part"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Tenon catalog source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: snap-point -> snap_point
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters, so a
		// minus operator is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a part.Vec3.
type sexpVec3 struct {
	vec part.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpShape wraps a part.ShapeSpec so it can be returned from `box` or
// `cylinder` and consumed by `deftemplate`.
type sexpShape struct {
	shape part.ShapeSpec
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	switch v := s.shape.(type) {
	case part.BoxShape:
		return fmt.Sprintf("(box %.1f %.1f %.1f)", v.Dims.X, v.Dims.Y, v.Dims.Z)
	case part.CylinderShape:
		return fmt.Sprintf("(cylinder :diameter %.1f :length %.1f)", v.Diameter, v.Length)
	}
	return "(shape)"
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpConnector wraps a part.Connector.
type sexpConnector struct {
	conn part.Connector
}

func (c *sexpConnector) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(connector :axis %s :at (vec3 %.1f %.1f %.1f))",
		c.conn.Axis, c.conn.Local.X, c.conn.Local.Y, c.conn.Local.Z)
}
func (c *sexpConnector) Type() *zygo.RegisteredType { return nil }

// sexpTemplateRef wraps a catalog handle so templates can be referenced
// after definition.
type sexpTemplateRef struct {
	id   part.TemplateID
	name string
}

func (r *sexpTemplateRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(template %q)", r.name)
}
func (r *sexpTemplateRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument
// list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_px) and plain strings ("px").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toAxisTag converts a keyword or string to a part.AxisTag.
func toAxisTag(s zygo.Sexp) (part.AxisTag, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return part.AxisNone, fmt.Errorf("expected axis keyword (:px, :nx, ...): %w", err)
	}
	return part.ParseAxisTag(name)
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (part.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return part.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toShape extracts a ShapeSpec from a sexpShape.
func toShape(s zygo.Sexp) (part.ShapeSpec, error) {
	if v, ok := s.(*sexpShape); ok {
		return v.shape, nil
	}
	return nil, fmt.Errorf("expected shape expression, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go
// slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the catalog DSL builtins into a zygomys
// environment. The builtins populate the provided catalog during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable string
// literals.
func registerBuiltins(env *zygo.Zlisp, catalog *part.Catalog) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: part.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 4 1 1) — dimensions along X, Y, Z; minimum corner at the origin
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("box requires exactly 3 dimensions, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: z: %w", err)
		}

		return &sexpShape{shape: part.BoxShape{Dims: part.Vec3{X: x, Y: y, Z: z}}}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :diameter 0.5 :length 2) — centered, axis along Z
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		shape := part.CylinderShape{}

		if v, ok := pa.kw["diameter"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: diameter: %w", err)
			}
			shape.Diameter = f
		}
		if v, ok := pa.kw["length"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: length: %w", err)
			}
			shape.Length = f
		}

		return &sexpShape{shape: shape}, nil
	})

	// -----------------------------------------------------------------------
	// (connector :axis :px :at (vec3 4 0.5 0.5) :name "east")
	// -----------------------------------------------------------------------
	env.AddFunction("connector", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		conn := part.Connector{}

		v, ok := pa.kw["axis"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("connector requires an :axis keyword")
		}
		axis, err := toAxisTag(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connector: axis: %w", err)
		}
		conn.Axis = axis

		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connector: at: %w", err)
			}
			conn.Local = vec
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connector: name: %w", err)
			}
			conn.Name = s
		}

		return &sexpConnector{conn: conn}, nil
	})

	// -----------------------------------------------------------------------
	// (deftemplate "beam"
	//   :shape (box 4 1 1)
	//   :connectors (list (connector ...) (connector ...)))
	// -----------------------------------------------------------------------
	env.AddFunction("deftemplate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("deftemplate requires a name argument")
		}

		tplName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deftemplate: name: %w", err)
		}

		v, ok := pa.kw["shape"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("deftemplate %q requires a :shape keyword", tplName)
		}
		shape, err := toShape(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deftemplate %q: shape: %w", tplName, err)
		}

		var connectors []part.Connector
		if v, ok := pa.kw["connectors"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("deftemplate %q: connectors: %w", tplName, err)
			}
			for i, item := range items {
				c, ok := item.(*sexpConnector)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("deftemplate %q: connector %d: expected connector expression, got %T",
						tplName, i, item)
				}
				connectors = append(connectors, c.conn)
			}
		}

		id, err := catalog.Define(tplName, shape, connectors)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deftemplate: %w", err)
		}

		return &sexpTemplateRef{id: id, name: tplName}, nil
	})

	// -----------------------------------------------------------------------
	// (template "beam") — reference to a previously defined template
	// -----------------------------------------------------------------------
	env.AddFunction("template", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("template requires a name argument")
		}

		tplName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("template: name: %w", err)
		}

		id, ok := catalog.ByName(tplName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("template: no template named %q", tplName)
		}

		return &sexpTemplateRef{id: id, name: tplName}, nil
	})
}
