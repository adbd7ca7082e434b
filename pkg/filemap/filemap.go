// Package filemap holds the in-memory file set that pipeline steps
// transform: an insertion-ordered map from slash-separated virtual paths
// to file records.
package filemap

import (
	"fmt"
	"sort"
)

// ContentsField is the field name under which File.Contents is addressed
// by Get and Set.
const ContentsField = "contents"

// File is a single virtual file: its contents plus arbitrary metadata fields.
type File struct {
	Contents []byte         // Raw file payload.
	Fields   map[string]any // Additional metadata; never holds ContentsField.
}

// NewFile returns a File holding the given contents.
func NewFile(contents []byte) *File {
	return &File{Contents: contents}
}

// Get returns the value stored under key. The ContentsField key returns
// the file contents.
func (f *File) Get(key string) (any, bool) {
	if key == ContentsField {
		return f.Contents, true
	}
	v, ok := f.Fields[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value. Setting
// ContentsField replaces the contents; strings and byte slices are taken
// as-is, anything else is formatted with fmt.
func (f *File) Set(key string, value any) {
	if key == ContentsField {
		f.Contents = toBytes(value)
		return
	}
	if f.Fields == nil {
		f.Fields = make(map[string]any)
	}
	f.Fields[key] = value
}

// FieldNames returns the metadata field names in sorted order.
func (f *File) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toBytes(value any) []byte {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return []byte(fmt.Sprint(v))
	}
}

// FileMap maps virtual paths to files and remembers insertion order.
//
// A FileMap is not safe for concurrent mutation; a pipeline step owns it
// exclusively while it runs. Steps mutate the map in place, so deletions and
// insertions are visible through every reference to it.
type FileMap struct {
	order []string
	files map[string]*File
}

// New returns an empty FileMap.
func New() *FileMap {
	return &FileMap{files: make(map[string]*File)}
}

// Len returns the number of files in the map.
func (m *FileMap) Len() int {
	return len(m.order)
}

// Get returns the file stored at path.
func (m *FileMap) Get(path string) (*File, bool) {
	f, ok := m.files[path]
	return f, ok
}

// Has reports whether path is present.
func (m *FileMap) Has(path string) bool {
	_, ok := m.files[path]
	return ok
}

// Set stores f at path. A new path is appended to the enumeration order;
// replacing an existing path keeps its position.
func (m *FileMap) Set(path string, f *File) {
	if _, ok := m.files[path]; !ok {
		m.order = append(m.order, path)
	}
	m.files[path] = f
}

// Delete removes path and reports whether it was present.
func (m *FileMap) Delete(path string) bool {
	if _, ok := m.files[path]; !ok {
		return false
	}
	delete(m.files, path)
	for i, p := range m.order {
		if p == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns a snapshot of the paths in enumeration order. The returned
// slice is not affected by later mutation of the map.
func (m *FileMap) Keys() []string {
	keys := make([]string, len(m.order))
	copy(keys, m.order)
	return keys
}

// Range calls fn for each file in enumeration order until fn returns false.
// fn may delete the current path; paths added during Range are not visited.
func (m *FileMap) Range(fn func(path string, f *File) bool) {
	for _, path := range m.Keys() {
		f, ok := m.files[path]
		if !ok {
			continue
		}
		if !fn(path, f) {
			return
		}
	}
}
