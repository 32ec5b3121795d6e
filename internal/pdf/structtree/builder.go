// Package structtree builds and inspects the logical structure tree that
// links marked content on pages to structure elements.
package structtree

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultRole is the structure type used for per-stream elements
const DefaultRole = "P"

// DefaultRoleMap lists the standard structure types every generated tree
// maps to themselves
func DefaultRoleMap() map[string]string {
	return map[string]string{"P": "P", "Span": "Span", "Figure": "Figure"}
}

// Assignment is the list of MCIDs assigned within one content stream
type Assignment struct {
	PageRef    types.IndirectRef
	PageNumber int
	IDs        []int
}

// Registrar allocates indirect objects in a document
type Registrar interface {
	IndRefForNewObject(obj types.Object) (*types.IndirectRef, error)
}

// Builder creates the structure objects for a set of assignments
type Builder struct {
	// Role is the /S of every element, DefaultRole when empty
	Role string
	// RoleMap maps custom roles to standard structure types. Entries are
	// merged over DefaultRoleMap; a Role missing from both maps to DefaultRole.
	RoleMap map[string]string
}

// Tree holds references to the objects a Build registered
type Tree struct {
	Root       *types.IndirectRef
	ParentTree *types.IndirectRef
	Elements   []*types.IndirectRef
	MCRs       int
}

// Build registers one structure element per assignment with a non-empty ID
// list, one marked content reference per ID, a parent tree mapping each ID
// to its element, and the StructTreeRoot tying them together.
//
// IDs across all assignments must be strictly increasing in the order given.
func (b Builder) Build(reg Registrar, assignments []Assignment) (*Tree, error) {
	if err := checkOrder(assignments); err != nil {
		return nil, err
	}

	role := b.Role
	if role == "" {
		role = DefaultRole
	}

	root := types.NewDict()
	rootRef, err := reg.IndRefForNewObject(root)
	if err != nil {
		return nil, fmt.Errorf("register StructTreeRoot: %w", err)
	}

	tree := &Tree{Root: rootRef}
	kids := types.Array{}
	nums := types.Array{}

	for _, a := range assignments {
		if len(a.IDs) == 0 {
			continue
		}
		pageRef := a.PageRef

		elem := types.NewDict()
		elemRef, err := reg.IndRefForNewObject(elem)
		if err != nil {
			return nil, fmt.Errorf("register StructElem for page %d: %w", a.PageNumber, err)
		}

		refs := types.Array{}
		for _, id := range a.IDs {
			mcr := types.Dict{
				"Type": types.Name("MCR"),
				"Pg":   pageRef,
				"MCID": types.Integer(id),
			}
			mcrRef, err := reg.IndRefForNewObject(mcr)
			if err != nil {
				return nil, fmt.Errorf("register MCR %d: %w", id, err)
			}
			refs = append(refs, *mcrRef)
			nums = append(nums, types.Integer(id), *elemRef)
			tree.MCRs++
		}

		elem.Insert("Type", types.Name("StructElem"))
		elem.Insert("S", types.Name(role))
		elem.Insert("P", *rootRef)
		elem.Insert("Pg", pageRef)
		elem.Insert("K", refs)

		kids = append(kids, *elemRef)
		tree.Elements = append(tree.Elements, elemRef)
	}

	parentTree := types.Dict{"Nums": nums}
	parentRef, err := reg.IndRefForNewObject(parentTree)
	if err != nil {
		return nil, fmt.Errorf("register ParentTree: %w", err)
	}
	tree.ParentTree = parentRef

	root.Insert("Type", types.Name("StructTreeRoot"))
	root.Insert("K", kids)
	root.Insert("ParentTree", *parentRef)
	root.Insert("RoleMap", b.roleMap(role))
	return tree, nil
}

func (b Builder) roleMap(role string) types.Dict {
	roles := DefaultRoleMap()
	for k, v := range b.RoleMap {
		roles[k] = v
	}
	if _, ok := roles[role]; !ok {
		roles[role] = DefaultRole
	}

	rm := types.NewDict()
	for k, v := range roles {
		rm.Insert(k, types.Name(v))
	}
	return rm
}

// OrderError reports an MCID that does not follow its predecessor
type OrderError struct {
	Previous int
	Current  int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("MCID %d does not follow %d", e.Current, e.Previous)
}

func checkOrder(assignments []Assignment) error {
	prev := -1
	for _, a := range assignments {
		for _, id := range a.IDs {
			if id < 0 || id <= prev {
				return &OrderError{Previous: prev, Current: id}
			}
			prev = id
		}
	}
	return nil
}
