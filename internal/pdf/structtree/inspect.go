package structtree

import (
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Info summarizes an existing structure tree
type Info struct {
	Elements          int            `json:"elements"`
	MarkedContentRefs int            `json:"marked_content_refs"`
	MCIDs             []int          `json:"mcids,omitempty"`
	Roles             map[string]int `json:"roles,omitempty"`
	ParentTreeEntries int            `json:"parent_tree_entries"`
}

// Inspect walks the tree below root through /K links and the parent tree
// through /Kids links and counts what it finds.
func Inspect(res Resolver, root types.Object) (*Info, error) {
	info := &Info{Roles: map[string]int{}}

	rootObj, err := res.Dereference(root)
	if err != nil {
		return nil, err
	}
	rootDict, ok := rootObj.(types.Dict)
	if !ok {
		return nil, &UnsupportedObjectError{Type: typeName(rootObj)}
	}

	err = Walk(res, rootDict["K"], []string{"K"}, func(_ *types.IndirectRef, obj types.Object) error {
		switch o := obj.(type) {
		case types.Integer:
			info.MCIDs = append(info.MCIDs, o.Value())
		case types.Dict:
			switch dictType(o) {
			case "MCR":
				if id, ok := o["MCID"].(types.Integer); ok {
					info.MarkedContentRefs++
					info.MCIDs = append(info.MCIDs, id.Value())
				}
				return SkipChildren
			case "OBJR":
				return SkipChildren
			default:
				if _, ok := o["S"]; ok {
					info.Elements++
					if s, ok := o["S"].(types.Name); ok {
						info.Roles[s.Value()]++
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pt, ok := rootDict["ParentTree"]; ok {
		err = Walk(res, pt, []string{"Kids"}, func(_ *types.IndirectRef, obj types.Object) error {
			if d, ok := obj.(types.Dict); ok {
				if nums, ok := d["Nums"].(types.Array); ok {
					info.ParentTreeEntries += len(nums) / 2
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Ints(info.MCIDs)
	return info, nil
}

func dictType(d types.Dict) string {
	if n, ok := d["Type"].(types.Name); ok {
		return n.Value()
	}
	return ""
}

func typeName(obj types.Object) string {
	if obj == nil {
		return "null"
	}
	return fmt.Sprintf("%T", obj)
}

func sortedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
