package structtree

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Resolver looks up the object an indirect reference points to
type Resolver interface {
	Dereference(obj types.Object) (types.Object, error)
}

// UnsupportedObjectError is returned when a walk meets a value it has no
// case for
type UnsupportedObjectError struct {
	Type string
}

func (e *UnsupportedObjectError) Error() string {
	return fmt.Sprintf("unsupported object type %s", e.Type)
}

// SkipChildren can be returned by a VisitFunc to stop descending below the
// current object
var SkipChildren = errors.New("skip children")

// VisitFunc is called for every object reached. ref is the indirect
// reference the object was reached through, nil for direct objects.
type VisitFunc func(ref *types.IndirectRef, obj types.Object) error

// Walk traverses the object graph from start depth first. Dictionaries are
// followed only through the listed keys, or every key when follow is empty.
// Each indirect object is visited once, so reference cycles terminate.
func Walk(res Resolver, start types.Object, follow []string, visit VisitFunc) error {
	w := &walker{res: res, visit: visit, visited: map[int]bool{}}
	if len(follow) > 0 {
		w.follow = map[string]bool{}
		for _, k := range follow {
			w.follow[k] = true
		}
	}
	return w.walk(nil, start)
}

type walker struct {
	res     Resolver
	visit   VisitFunc
	follow  map[string]bool
	visited map[int]bool
}

func (w *walker) walk(ref *types.IndirectRef, obj types.Object) error {
	switch o := obj.(type) {
	case types.IndirectRef:
		return w.walkRef(o)
	case *types.IndirectRef:
		if o == nil {
			return w.visitLeaf(ref, nil)
		}
		return w.walkRef(*o)
	case types.Dict:
		return w.walkDict(ref, o, o)
	case types.StreamDict:
		return w.walkDict(ref, o, o.Dict)
	case *types.StreamDict:
		return w.walkDict(ref, o, o.Dict)
	case types.Array:
		if err := w.visit(ref, o); err != nil {
			return skip(err)
		}
		for _, item := range o {
			if err := w.walk(nil, item); err != nil {
				return err
			}
		}
		return nil
	case nil, types.Name, types.Integer, types.Float, types.Boolean, types.StringLiteral, types.HexLiteral:
		return w.visitLeaf(ref, obj)
	default:
		return &UnsupportedObjectError{Type: fmt.Sprintf("%T", obj)}
	}
}

func (w *walker) walkRef(ref types.IndirectRef) error {
	nr := ref.ObjectNumber.Value()
	if w.visited[nr] {
		return nil
	}
	w.visited[nr] = true

	obj, err := w.res.Dereference(ref)
	if err != nil {
		return fmt.Errorf("resolve object %d: %w", nr, err)
	}
	return w.walk(&ref, obj)
}

func (w *walker) walkDict(ref *types.IndirectRef, obj types.Object, d types.Dict) error {
	if err := w.visit(ref, obj); err != nil {
		return skip(err)
	}
	for _, key := range sortedKeys(d) {
		if w.follow != nil && !w.follow[key] {
			continue
		}
		if err := w.walk(nil, d[key]); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visitLeaf(ref *types.IndirectRef, obj types.Object) error {
	return skip(w.visit(ref, obj))
}

func skip(err error) error {
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}
