package scene

import (
	"fmt"

	"github.com/Faultbox/sceneflat/internal/source"
)

// Flatten builds a Scene from src. Nodes are indexed before any mesh so
// that vertex node tags and parent links always resolve.
func Flatten(src source.Scene, opts Options) (*Scene, error) {
	objects := src.Objects()

	nodes, links, err := buildNodeTable(objects, opts.Order)
	if err != nil {
		return nil, fmt.Errorf("node table: %w", err)
	}

	meshes, err := buildMeshTable(src.Meshes(), nodes, opts.Variant)
	if err != nil {
		return nil, fmt.Errorf("mesh table: %w", err)
	}

	for i := 0; i < nodes.Len(); i++ {
		name := links[i]
		if name == "" {
			// Without an explicit link a node holds the mesh of its own name.
			if !meshes.Contains(nodes.KeyAt(i)) {
				continue
			}
			name = nodes.KeyAt(i)
		}
		mi, err := meshes.Find(name)
		if err != nil {
			return nil, fmt.Errorf("node %q mesh: %w", nodes.KeyAt(i), err)
		}
		n := nodes.At(i)
		n.Mesh = mi
		nodes.Set(i, n)
	}

	s := &Scene{
		Variant: opts.Variant,
		Meshes:  meshes.Values(),
		Nodes:   nodes.Values(),
	}
	for _, img := range src.Images() {
		s.Textures = append(s.Textures, Texture{Path: img.Filepath})
	}
	s.Material = materialFor(s.Textures)

	return s, nil
}

// buildNodeTable registers every object name, orders the objects, then
// resolves parent names by lookup. links holds each slot's mesh name.
func buildNodeTable(objects []source.Object, order NodeOrder) (*Indexed[string, Node], []string, error) {
	byName := NewIndexed[string, int]()
	for i := range objects {
		if _, err := byName.Add(objects[i].Name, i); err != nil {
			return nil, nil, err
		}
	}

	parents := make([]int, len(objects))
	for i := range objects {
		parents[i] = NoIndex
		if objects[i].Parent == "" {
			continue
		}
		p, err := byName.Find(objects[i].Parent)
		if err != nil {
			return nil, nil, fmt.Errorf("parent of %q: %w", objects[i].Name, err)
		}
		parents[i] = p
	}

	sorted, err := parentsFirst(objects, parents)
	if err != nil {
		return nil, nil, err
	}
	if order == OrderSource {
		sorted = make([]int, len(objects))
		for i := range sorted {
			sorted[i] = i
		}
	}

	nodes := NewIndexed[string, Node]()
	links := make([]string, 0, len(objects))
	for _, i := range sorted {
		obj := &objects[i]
		if _, err := nodes.Add(obj.Name, Node{
			Name:   obj.Name,
			Parent: NoIndex,
			Mesh:   NoIndex,
			Matrix: obj.Matrix.Transpose(),
		}); err != nil {
			return nil, nil, err
		}
		links = append(links, obj.Mesh)
	}

	for slot := 0; slot < nodes.Len(); slot++ {
		obj := &objects[sorted[slot]]
		if obj.Parent == "" {
			continue
		}
		p, err := nodes.Find(obj.Parent)
		if err != nil {
			return nil, nil, err
		}
		n := nodes.At(slot)
		n.Parent = p
		nodes.Set(slot, n)
	}

	return nodes, links, nil
}

// parentsFirst returns object indices ordered so that every parent comes
// before its children, preserving source order otherwise.
func parentsFirst(objects []source.Object, parents []int) ([]int, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(objects))
	out := make([]int, 0, len(objects))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %q", ErrCyclicHierarchy, objects[i].Name)
		}
		state[i] = visiting
		if p := parents[i]; p != NoIndex {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[i] = done
		out = append(out, i)
		return nil
	}

	for i := range objects {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildMeshTable(src []source.Mesh, nodes *Indexed[string, Node], variant Variant) (*Indexed[string, Mesh], error) {
	meshes := NewIndexed[string, Mesh]()
	for i := range src {
		sm := &src[i]
		if meshes.Contains(sm.Name) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, sm.Name)
		}

		tag := NoIndex
		if variant == VariantBinary {
			owner, err := nodes.Find(sm.OwnerName())
			if err != nil {
				return nil, fmt.Errorf("owner of mesh %q: %w", sm.Name, err)
			}
			tag = owner
		}

		m, err := FlattenMesh(sm, tag)
		if err != nil {
			return nil, err
		}
		if _, err := meshes.Add(m.Name, m); err != nil {
			return nil, err
		}
	}
	return meshes, nil
}

// materialFor fills the ambient, diffuse and specular slots from the first
// three textures.
func materialFor(textures []Texture) Material {
	var slots [3]string
	for i := 0; i < len(slots) && i < len(textures); i++ {
		slots[i] = textures[i].Path
	}
	return Material{Ambient: slots[0], Diffuse: slots[1], Specular: slots[2]}
}
