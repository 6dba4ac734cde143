package datatable

import (
	"errors"
	"fmt"
)

// Common errors returned by the datatable package.
var (
	// ErrInvalidColumn is returned when a column index is out of range.
	ErrInvalidColumn = errors.New("invalid column index")

	// ErrInvalidRow is returned when a row index is outside the loaded rows.
	ErrInvalidRow = errors.New("invalid row index")

	// ErrNoDataSource is returned when a required data source is nil.
	ErrNoDataSource = errors.New("data source is nil")

	// ErrInvalidSortColumn is returned when trying to sort by an invalid column.
	ErrInvalidSortColumn = errors.New("invalid sort column")

	// ErrExportFailed is returned when export operation fails.
	ErrExportFailed = errors.New("export failed")

	// ErrRowShape is returned when a source yields a row whose width does not
	// match its columns.
	ErrRowShape = errors.New("row does not match column count")

	// ErrUnknownFieldKind is returned when a field kind name is not recognised.
	ErrUnknownFieldKind = errors.New("unknown field kind")

	// ErrNotStructured is wrapped by StructureError when a file is not a
	// recognised record file.
	ErrNotStructured = errors.New("not a valid structured record file")

	// ErrIncompatibleBuild is wrapped by StructureError when the requested
	// build cannot be applied to the file.
	ErrIncompatibleBuild = errors.New("incompatible build")
)

// StructureError is returned when opening a file fails because its content
// cannot be parsed as a structured record file of the requested build.
type StructureError struct {
	Path  string
	Build int
	Err   error
}

func (e *StructureError) Error() string {
	if e.Build == BuildAuto {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s (build %d): %v", e.Path, e.Build, e.Err)
}

func (e *StructureError) Unwrap() error { return e.Err }

// NewStructureError builds a StructureError whose message is err wrapped
// with the optional detail.
func NewStructureError(path string, build int, err error, detail string) *StructureError {
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return &StructureError{Path: path, Build: build, Err: err}
}
