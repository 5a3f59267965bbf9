// Package tessellate walks a part catalog and produces triangle meshes
// using a geometry kernel. One mesh is produced per template, in template
// local space; the host positions instances by transform.
package tessellate

import (
	"fmt"

	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/part"
)

// Templates produces one mesh per catalog template, in definition order.
// The catalog is read-only here and never mutated.
func Templates(c *part.Catalog, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if c == nil {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, 0, c.Len())
	for id := part.TemplateID(0); int(id) < c.Len(); id++ {
		tpl, _ := c.ByID(id)
		mesh, err := Template(tpl, k)
		if err != nil {
			return nil, fmt.Errorf("tessellate: template %q: %w", tpl.Name, err)
		}
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}

// Template produces the mesh for a single template in local space.
func Template(tpl *part.Template, k kernel.Kernel) (*kernel.Mesh, error) {
	if tpl == nil {
		return nil, fmt.Errorf("nil template")
	}

	solid, err := kernel.SolidForShape(k, tpl.Shape, part.Transform{})
	if err != nil {
		return nil, err
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.Template = tpl.Name
	return mesh, nil
}
