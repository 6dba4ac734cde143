package wdbc

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"qtab/datatable"
)

//go:embed structures.yaml
var defaultStructures string

// FieldType is the binary encoding of a field inside a record.
type FieldType string

const (
	TypeInt8    FieldType = "int8"
	TypeUint8   FieldType = "uint8"
	TypeInt16   FieldType = "int16"
	TypeUint16  FieldType = "uint16"
	TypeInt32   FieldType = "int32"
	TypeUint32  FieldType = "uint32"
	TypeInt64   FieldType = "int64"
	TypeUint64  FieldType = "uint64"
	TypeFloat   FieldType = "float"
	TypeString  FieldType = "string"
	TypeHash    FieldType = "hash"
	TypeBitMask FieldType = "bitmask"
	TypeMoney   FieldType = "money"
	TypeData    FieldType = "data"
)

const hashSize = 16

// Field describes one field of a record layout.
type Field struct {
	Name string    `yaml:"name"`
	Type FieldType `yaml:"type"`
	// Size is the byte width of data fields.
	Size int `yaml:"size,omitempty"`
}

// Width returns the number of bytes the field occupies in a record.
func (f Field) Width() int {
	switch f.Type {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt64, TypeUint64:
		return 8
	case TypeHash:
		return hashSize
	case TypeData:
		return f.Size
	default:
		return 4
	}
}

// Kind returns the display kind of the field.
func (f Field) Kind() datatable.FieldKind {
	switch f.Type {
	case TypeHash:
		return datatable.KindHashBytes
	case TypeData:
		return datatable.KindOpaqueData
	case TypeBitMask:
		return datatable.KindBitMask
	case TypeMoney:
		return datatable.KindMoney
	default:
		return datatable.KindPlain
	}
}

func (f Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("field without name")
	}
	switch f.Type {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16, TypeInt32, TypeUint32,
		TypeInt64, TypeUint64, TypeFloat, TypeString, TypeHash, TypeBitMask, TypeMoney:
		return nil
	case TypeData:
		if f.Size <= 0 {
			return fmt.Errorf("field %s: data size must be > 0", f.Name)
		}
		return nil
	default:
		return fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
	}
}

// Layout is the record layout used from Build until the next layout.
type Layout struct {
	Build  int     `yaml:"build"`
	Fields []Field `yaml:"fields"`
}

// RecordSize returns the sum of the field widths.
func (l *Layout) RecordSize() int {
	size := 0
	for _, f := range l.Fields {
		size += f.Width()
	}
	return size
}

// Columns returns the field descriptors of the layout.
func (l *Layout) Columns() []datatable.FieldDescriptor {
	cols := make([]datatable.FieldDescriptor, len(l.Fields))
	for i, f := range l.Fields {
		cols[i] = datatable.FieldDescriptor{Name: f.Name, Kind: f.Kind()}
	}
	return cols
}

// Structure is the set of layouts known for one file name.
type Structure struct {
	Name    string   `yaml:"name"`
	Layouts []Layout `yaml:"layouts"`
}

// Resolve picks the layout for build and checks it against the header's
// record size. For BuildAuto the newest layout with a matching record size
// wins. The returned build is the one the file will report.
func (s *Structure) Resolve(build, recordSize int) (*Layout, int, error) {
	if build == datatable.BuildAuto {
		for i := len(s.Layouts) - 1; i >= 0; i-- {
			l := &s.Layouts[i]
			if l.RecordSize() == recordSize {
				return l, l.Build, nil
			}
		}
		return nil, 0, fmt.Errorf("%w: no %s layout has a record size of %d bytes", datatable.ErrIncompatibleBuild, s.Name, recordSize)
	}

	var layout *Layout
	for i := range s.Layouts {
		if s.Layouts[i].Build <= build {
			layout = &s.Layouts[i]
		}
	}
	if layout == nil {
		return nil, 0, fmt.Errorf("%w: no %s layout for build %d", datatable.ErrIncompatibleBuild, s.Name, build)
	}
	if got := layout.RecordSize(); got != recordSize {
		return nil, 0, fmt.Errorf("%w: %s layout for build %d has %d byte records, file has %d",
			datatable.ErrIncompatibleBuild, s.Name, build, got, recordSize)
	}
	return layout, build, nil
}

// Registry maps file names to structures.
type Registry struct {
	structures map[string]*Structure
}

type registryDoc struct {
	Structures []Structure `yaml:"structures"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{structures: make(map[string]*Structure)}
}

// DefaultRegistry returns a registry with the built-in structures.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Load(strings.NewReader(defaultStructures)); err != nil {
		panic(fmt.Sprintf("wdbc: invalid built-in structures: %v", err))
	}
	return r
}

// Load adds the structures of a YAML document, replacing structures with the
// same name.
func (r *Registry) Load(rd io.Reader) error {
	var doc registryDoc
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse structures: %w", err)
	}

	for i := range doc.Structures {
		s := doc.Structures[i]
		if s.Name == "" {
			return fmt.Errorf("structure %d has no name", i)
		}
		if len(s.Layouts) == 0 {
			return fmt.Errorf("structure %s has no layouts", s.Name)
		}
		for _, l := range s.Layouts {
			for _, f := range l.Fields {
				if err := f.validate(); err != nil {
					return fmt.Errorf("structure %s build %d: %w", s.Name, l.Build, err)
				}
			}
		}
		sort.SliceStable(s.Layouts, func(a, b int) bool {
			return s.Layouts[a].Build < s.Layouts[b].Build
		})
		r.structures[strings.ToLower(s.Name)] = &s
	}
	return nil
}

// LoadFile adds the structures defined in a YAML file.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open structures: %w", err)
	}
	defer f.Close()
	return r.Load(f)
}

// Lookup finds a structure by name, ignoring case.
func (r *Registry) Lookup(name string) (*Structure, bool) {
	s, ok := r.structures[strings.ToLower(name)]
	return s, ok
}

// Names returns the registered structure names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.structures))
	for _, s := range r.structures {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
