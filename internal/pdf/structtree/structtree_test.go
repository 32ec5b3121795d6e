package structtree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTable is an in-memory object table
type memTable struct {
	objects map[int]types.Object
	next    int
	fail    bool
}

func newMemTable() *memTable {
	return &memTable{objects: map[int]types.Object{}, next: 100}
}

func (m *memTable) IndRefForNewObject(obj types.Object) (*types.IndirectRef, error) {
	if m.fail {
		return nil, errors.New("table full")
	}
	nr := m.next
	m.next++
	m.objects[nr] = obj
	return types.NewIndirectRef(nr, 0), nil
}

func (m *memTable) Dereference(obj types.Object) (types.Object, error) {
	ref, ok := obj.(types.IndirectRef)
	if !ok {
		return obj, nil
	}
	o, ok := m.objects[ref.ObjectNumber.Value()]
	if !ok {
		return nil, fmt.Errorf("object %d not found", ref.ObjectNumber.Value())
	}
	return o, nil
}

func (m *memTable) dict(t *testing.T, obj types.Object) types.Dict {
	t.Helper()
	o, err := m.Dereference(obj)
	require.NoError(t, err)
	d, ok := o.(types.Dict)
	require.True(t, ok, "expected dict, got %T", o)
	return d
}

func pageRef(nr int) types.IndirectRef {
	return *types.NewIndirectRef(nr, 0)
}

func TestBuildTwoPages(t *testing.T) {
	tbl := newMemTable()
	assignments := []Assignment{
		{PageRef: pageRef(3), PageNumber: 1, IDs: []int{0, 1}},
		{PageRef: pageRef(7), PageNumber: 2, IDs: []int{2, 3}},
	}

	tree, err := Builder{}.Build(tbl, assignments)
	require.NoError(t, err)
	require.Len(t, tree.Elements, 2)
	assert.Equal(t, 4, tree.MCRs)

	root := tbl.dict(t, *tree.Root)
	assert.Equal(t, types.Name("StructTreeRoot"), root["Type"])
	assert.Equal(t, *tree.ParentTree, root["ParentTree"])
	assert.Equal(t, types.Dict{
		"P":      types.Name("P"),
		"Span":   types.Name("Span"),
		"Figure": types.Name("Figure"),
	}, root["RoleMap"])

	kids, ok := root["K"].(types.Array)
	require.True(t, ok)
	require.Len(t, kids, 2)

	for i, a := range assignments {
		assert.Equal(t, *tree.Elements[i], kids[i])
		elem := tbl.dict(t, kids[i])
		assert.Equal(t, types.Name("StructElem"), elem["Type"])
		assert.Equal(t, types.Name(DefaultRole), elem["S"])
		assert.Equal(t, *tree.Root, elem["P"])
		assert.Equal(t, a.PageRef, elem["Pg"])

		mcrs, ok := elem["K"].(types.Array)
		require.True(t, ok)
		require.Len(t, mcrs, 2)
		for j, ref := range mcrs {
			mcr := tbl.dict(t, ref)
			assert.Equal(t, types.Name("MCR"), mcr["Type"])
			assert.Equal(t, a.PageRef, mcr["Pg"])
			assert.Equal(t, types.Integer(a.IDs[j]), mcr["MCID"])
		}
	}

	parent := tbl.dict(t, *tree.ParentTree)
	nums, ok := parent["Nums"].(types.Array)
	require.True(t, ok)
	assert.Equal(t, types.Array{
		types.Integer(0), *tree.Elements[0],
		types.Integer(1), *tree.Elements[0],
		types.Integer(2), *tree.Elements[1],
		types.Integer(3), *tree.Elements[1],
	}, nums)
}

func TestBuildSkipsEmptyAssignments(t *testing.T) {
	tbl := newMemTable()
	tree, err := Builder{Role: "Div", RoleMap: map[string]string{"Div": "P"}}.Build(tbl, []Assignment{
		{PageRef: pageRef(3), PageNumber: 1},
		{PageRef: pageRef(5), PageNumber: 2, IDs: []int{0}},
		{PageRef: pageRef(9), PageNumber: 3, IDs: []int{}},
	})
	require.NoError(t, err)
	require.Len(t, tree.Elements, 1)

	elem := tbl.dict(t, *tree.Elements[0])
	assert.Equal(t, types.Name("Div"), elem["S"])
	assert.Equal(t, pageRef(5), elem["Pg"])

	root := tbl.dict(t, *tree.Root)
	roleMap, ok := root["RoleMap"].(types.Dict)
	require.True(t, ok)
	assert.Equal(t, types.Name("P"), roleMap["Div"])
	assert.Equal(t, types.Name("Figure"), roleMap["Figure"])
}

func TestBuildMapsCustomRole(t *testing.T) {
	tbl := newMemTable()
	tree, err := Builder{Role: "Caption"}.Build(tbl, []Assignment{
		{PageRef: pageRef(3), PageNumber: 1, IDs: []int{0}},
	})
	require.NoError(t, err)

	root := tbl.dict(t, *tree.Root)
	roleMap, ok := root["RoleMap"].(types.Dict)
	require.True(t, ok)
	assert.Equal(t, types.Name(DefaultRole), roleMap["Caption"])
	assert.Equal(t, types.Name("Span"), roleMap["Span"])
}

func TestBuildNoAssignments(t *testing.T) {
	tbl := newMemTable()
	tree, err := Builder{}.Build(tbl, nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Elements)

	root := tbl.dict(t, *tree.Root)
	assert.Equal(t, types.Array{}, root["K"])
	parent := tbl.dict(t, *tree.ParentTree)
	assert.Equal(t, types.Array{}, parent["Nums"])
}

func TestBuildRejectsUnorderedIDs(t *testing.T) {
	tests := []struct {
		name        string
		assignments []Assignment
	}{
		{"Repeated", []Assignment{{IDs: []int{0, 1}}, {IDs: []int{1}}}},
		{"Decreasing", []Assignment{{IDs: []int{3, 2}}}},
		{"Negative", []Assignment{{IDs: []int{-1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newMemTable()
			_, err := Builder{}.Build(tbl, tt.assignments)
			var oe *OrderError
			require.True(t, errors.As(err, &oe), "got %v", err)
			assert.Empty(t, tbl.objects, "nothing registered on failure")
		})
	}
}

func TestBuildRegistrarFailure(t *testing.T) {
	tbl := newMemTable()
	tbl.fail = true
	_, err := Builder{}.Build(tbl, []Assignment{{IDs: []int{0}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StructTreeRoot")
}

func TestInspectBuiltTree(t *testing.T) {
	tbl := newMemTable()
	tree, err := Builder{}.Build(tbl, []Assignment{
		{PageRef: pageRef(3), PageNumber: 1, IDs: []int{0, 1, 2}},
		{PageRef: pageRef(7), PageNumber: 2, IDs: []int{3}},
	})
	require.NoError(t, err)

	info, err := Inspect(tbl, *tree.Root)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Elements)
	assert.Equal(t, 4, info.MarkedContentRefs)
	assert.Equal(t, []int{0, 1, 2, 3}, info.MCIDs)
	assert.Equal(t, map[string]int{"P": 2}, info.Roles)
	assert.Equal(t, 4, info.ParentTreeEntries)
}

func TestInspectIntegerKids(t *testing.T) {
	tbl := newMemTable()
	elem := types.Dict{"Type": types.Name("StructElem"), "S": types.Name("H1"), "K": types.Array{types.Integer(4), types.Integer(5)}}
	elemRef, _ := tbl.IndRefForNewObject(elem)
	root := types.Dict{"Type": types.Name("StructTreeRoot"), "K": *elemRef}

	info, err := Inspect(tbl, root)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Elements)
	assert.Equal(t, []int{4, 5}, info.MCIDs)
	assert.Equal(t, 0, info.MarkedContentRefs)
	assert.Equal(t, 0, info.ParentTreeEntries)
}

func TestWalkCycle(t *testing.T) {
	tbl := newMemTable()
	a := types.Dict{"S": types.Name("Sect")}
	b := types.Dict{"S": types.Name("P")}
	aRef, _ := tbl.IndRefForNewObject(a)
	bRef, _ := tbl.IndRefForNewObject(b)
	a["K"] = *bRef
	b["K"] = types.Array{*aRef, *bRef}

	visits := 0
	err := Walk(tbl, *aRef, []string{"K"}, func(ref *types.IndirectRef, obj types.Object) error {
		if _, ok := obj.(types.Dict); ok {
			visits++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, visits)

	info, err := Inspect(tbl, types.Dict{"K": *aRef})
	require.NoError(t, err)
	assert.Equal(t, 2, info.Elements)
}

func TestWalkFollowsOnlyListedKeys(t *testing.T) {
	tbl := newMemTable()
	page := types.Dict{"Type": types.Name("Page")}
	pageRef, _ := tbl.IndRefForNewObject(page)
	elem := types.Dict{"Pg": *pageRef, "K": types.Integer(0)}

	var seen []types.Object
	err := Walk(tbl, elem, []string{"K"}, func(_ *types.IndirectRef, obj types.Object) error {
		seen = append(seen, obj)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Object{elem, types.Integer(0)}, seen)

	seen = nil
	err = Walk(tbl, elem, nil, func(_ *types.IndirectRef, obj types.Object) error {
		seen = append(seen, obj)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 4, "element, MCID, page dict and its /Type")
}

func TestWalkReportsReference(t *testing.T) {
	tbl := newMemTable()
	leafRef, _ := tbl.IndRefForNewObject(types.Name("x"))

	var got *types.IndirectRef
	err := Walk(tbl, types.Array{*leafRef}, nil, func(ref *types.IndirectRef, obj types.Object) error {
		if obj == types.Name("x") {
			got = ref
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *leafRef, *got)
}

type opaque struct{ types.Name }

func TestWalkUnsupportedObject(t *testing.T) {
	err := Walk(newMemTable(), types.Array{opaque{"x"}}, nil, func(*types.IndirectRef, types.Object) error { return nil })
	var uoe *UnsupportedObjectError
	require.True(t, errors.As(err, &uoe))
	assert.Contains(t, uoe.Type, "opaque")
}

func TestWalkUnresolvable(t *testing.T) {
	err := Walk(newMemTable(), *types.NewIndirectRef(42, 0), nil, func(*types.IndirectRef, types.Object) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object 42")
}
