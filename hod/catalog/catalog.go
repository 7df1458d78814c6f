// Package catalog implements the .hcat column container used for halo and
// particle subsample files. A file holds a JSON header (simulation and
// cosmology metadata plus a block directory) followed by one
// zstd-compressed little-endian block per column, so readers can decode
// just the columns they need.
package catalog

import (
	"fmt"
)

// FieldType identifies a column's element encoding.
type FieldType string

const (
	// Float32 columns hold 4-byte IEEE-754 values.
	Float32 FieldType = "f4"
	// Int64 columns hold 8-byte signed integers.
	Int64 FieldType = "i8"
)

var fieldTypeSizes = map[FieldType]int64{
	Float32: 4,
	Int64:   8,
}

// Header carries the metadata every catalog consumer needs: box geometry,
// cosmology, the redshift-space velocity conversion factor, and the column
// directory.
type Header struct {
	SimName      string  `json:"sim_name"`
	Redshift     float64 `json:"redshift"`
	BoxSize      float64 `json:"box_size"`      // Mpc/h
	ParticleMass float64 `json:"particle_mass"` // Msun/h
	H0           float64 `json:"h0"`            // km/s/Mpc
	OmegaM       float64 `json:"omega_m"`
	OmegaL       float64 `json:"omega_l"`
	VelZToKMS    float64 `json:"velz2kms"` // km/s per unit comoving displacement
	Chunk        int     `json:"chunk"`
	NumChunks    int     `json:"num_chunks"`
	NumRows      int64   `json:"num_rows"`

	Blocks []BlockInfo `json:"blocks"`
}

// BlockInfo locates one compressed column. Offsets are relative to the
// start of the data section so the header can be sized independently.
type BlockInfo struct {
	Name           string    `json:"name"`
	Type           FieldType `json:"type"`
	Offset         int64     `json:"offset"`
	CompressedSize int64     `json:"compressed_size"`
	RawSize        int64     `json:"raw_size"`
}

// Field is one in-memory column. Exactly one of F32 and I64 is populated,
// according to Type.
type Field struct {
	Name string
	Type FieldType
	F32  []float32
	I64  []int64
}

func (f *Field) rows() int64 {
	if f.Type == Int64 {
		return int64(len(f.I64))
	}
	return int64(len(f.F32))
}

// Table is a decoded catalog: header plus columns in directory order.
type Table struct {
	Header Header
	Fields []Field
}

// NewTable starts an empty table with the given header metadata. The block
// directory and row count are filled in by Write.
func NewTable(h Header) *Table {
	h.Blocks = nil
	h.NumRows = 0
	return &Table{Header: h}
}

// AddFloat32 appends a float32 column.
func (t *Table) AddFloat32(name string, data []float32) {
	t.Fields = append(t.Fields, Field{Name: name, Type: Float32, F32: data})
}

// AddInt64 appends an int64 column.
func (t *Table) AddInt64(name string, data []int64) {
	t.Fields = append(t.Fields, Field{Name: name, Type: Int64, I64: data})
}

// Has reports whether a column is present.
func (t *Table) Has(name string) bool {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return true
		}
	}
	return false
}

// Float32 returns the named float32 column.
func (t *Table) Float32(name string) ([]float32, error) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			if t.Fields[i].Type != Float32 {
				return nil, fmt.Errorf("field %q is %s, not %s", name, t.Fields[i].Type, Float32)
			}
			return t.Fields[i].F32, nil
		}
	}
	return nil, fmt.Errorf("field %q not present", name)
}

// Int64 returns the named int64 column.
func (t *Table) Int64(name string) ([]int64, error) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			if t.Fields[i].Type != Int64 {
				return nil, fmt.Errorf("field %q is %s, not %s", name, t.Fields[i].Type, Int64)
			}
			return t.Fields[i].I64, nil
		}
	}
	return nil, fmt.Errorf("field %q not present", name)
}

// NumRows returns the common column length.
func (t *Table) NumRows() int64 {
	if len(t.Fields) == 0 {
		return 0
	}
	return t.Fields[0].rows()
}

// checkRows verifies all columns share one length.
func (t *Table) checkRows() error {
	if len(t.Fields) == 0 {
		return nil
	}
	want := t.Fields[0].rows()
	for i := range t.Fields {
		if got := t.Fields[i].rows(); got != want {
			return fmt.Errorf("field %q has %d rows, want %d", t.Fields[i].Name, got, want)
		}
	}
	return nil
}
