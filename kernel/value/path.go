package value

import (
	"strconv"
	"strings"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
)

// PathSegment is one parsed element of a property path (spec §6's path
// grammar: `segment := identifier | "[" index "]"`).
type PathSegment struct {
	Key      string // set when this is an object-key segment
	Index    int    // set when this is an array-index segment
	IsIndex  bool
}

// ParsePath parses "a.b[0].c" into its segments. A leading array index
// with no preceding key ("[0].a") is valid; consecutive dots or an
// empty segment is a parse error.
func ParsePath(path string) ([]PathSegment, *flowerr.Error) {
	var segs []PathSegment
	i := 0
	n := len(path)
	for i < n {
		switch {
		case path[i] == '.':
			i++
			if i >= n || path[i] == '.' || path[i] == '[' {
				return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: empty segment", path)
			}
		case path[i] == '[':
			j := strings.IndexByte(path[i:], ']')
			if j < 0 {
				return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: unterminated index", path)
			}
			idxStr := path[i+1 : i+j]
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 || (len(idxStr) > 1 && idxStr[0] == '0') {
				return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: invalid index %q", path, idxStr)
			}
			segs = append(segs, PathSegment{Index: idx, IsIndex: true})
			i += j + 1
			continue
		}
		start := i
		for i < n && path[i] != '.' && path[i] != '[' {
			i++
		}
		if i > start {
			segs = append(segs, PathSegment{Key: path[start:i]})
		}
	}
	if len(segs) == 0 {
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: empty path", path)
	}
	return segs, nil
}

// PeekFromPath walks v along path, returning a borrow of the matching
// child, or an error if any intermediate segment is missing or of the
// wrong container kind.
func PeekFromPath(v *Value, path string) (*Value, *flowerr.Error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	cur := v
	for _, s := range segs {
		if s.IsIndex {
			if cur == nil || cur.Kind != Array {
				return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: expected array", path)
			}
			if s.Index < 0 || s.Index >= len(cur.arr) {
				return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: index %d out of range", path, s.Index)
			}
			cur = cur.arr[s.Index]
			continue
		}
		if cur == nil || cur.Kind != Object {
			return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: expected object at %q", path, s.Key)
		}
		child, ok := cur.ObjectPeek(s.Key)
		if !ok {
			return nil, flowerr.New(flowerr.CodeInvalidArgument, "path %q: no such key %q", path, s.Key)
		}
		cur = child
	}
	return cur, nil
}

// SetFromPathStrWithMove inserts child at path, moving ownership of
// child into the tree. Missing object nodes along the way are created;
// arrays are never auto-grown (spec §4.1), so indexing past the end of
// an existing array is an error.
func SetFromPathStrWithMove(root *Value, path string, child *Value) *flowerr.Error {
	segs, err := ParsePath(path)
	if err != nil {
		return err
	}
	cur := root
	for i, s := range segs {
		last := i == len(segs)-1
		if s.IsIndex {
			if cur == nil || cur.Kind != Array {
				return flowerr.New(flowerr.CodeInvalidArgument, "path %q: expected array", path)
			}
			if s.Index < 0 || s.Index >= len(cur.arr) {
				return flowerr.New(flowerr.CodeInvalidArgument, "path %q: index %d out of range (arrays are not auto-grown)", path, s.Index)
			}
			if last {
				cur.arr[s.Index] = child
				return nil
			}
			cur = cur.arr[s.Index]
			continue
		}
		if cur == nil || cur.Kind != Object {
			return flowerr.New(flowerr.CodeInvalidArgument, "path %q: expected object at %q", path, s.Key)
		}
		if last {
			return wrapMoveErr(cur.ObjectMove(s.Key, child))
		}
		next, ok := cur.ObjectPeek(s.Key)
		if !ok {
			next = NewObject()
			if moveErr := cur.ObjectMove(s.Key, next); moveErr != nil {
				return wrapMoveErr(moveErr)
			}
		}
		cur = next
	}
	return nil
}

func wrapMoveErr(err error) *flowerr.Error {
	if err == nil {
		return nil
	}
	return flowerr.New(flowerr.CodeInvalidArgument, "%v", err)
}
