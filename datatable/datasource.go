package datatable

// BuildAuto asks a source to detect the build from the file itself.
const BuildAuto = -1

// Source provides read access to a structured record file.
// A Source is owned by exactly one TableModel, which closes it when the
// model moves to another file or is closed itself.
type Source interface {
	// Len returns the total number of rows, independent of how many are loaded.
	Len() int

	// Columns returns the field descriptors in column order.
	Columns() []FieldDescriptor

	// FetchRange returns up to count rows beginning at start.
	// Fewer rows are returned when the range runs past Len; an error is
	// returned only for I/O failures or corrupt records.
	FetchRange(start, count int) ([]Row, error)

	// Build returns the build the file was parsed with.
	Build() int

	// Path returns the file the source was opened from.
	Path() string

	// KindName is a short human readable description of the source type.
	KindName() string

	// Close releases the underlying file.
	Close() error
}

// OpenFunc opens path at the given build. BuildAuto detects the build.
// Failures to recognise the file are reported as *StructureError.
type OpenFunc func(path string, build int) (Source, error)
