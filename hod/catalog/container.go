package catalog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

// Container layout:
//
//	[0:4]  magic "HCAT"
//	[4:8]  format version, uint32 little-endian
//	[8:12] header length H, uint32 little-endian
//	[12:12+H] JSON header
//	[12+H:]   column blocks at their directory offsets
const (
	magic         = "HCAT"
	formatVersion = 1
	preambleSize  = 12
)

// DefaultReadWorkers bounds concurrent column decompression during Read.
const DefaultReadWorkers = 4

// ErrBadMagic means the file is not a catalog container.
var ErrBadMagic = errors.New("not a catalog file (bad magic)")

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder

	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

// sharedEncoder and sharedDecoder are safe for concurrent EncodeAll and
// DecodeAll use.
func sharedEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder
}

func sharedDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(DefaultReadWorkers))
	})
	return decoder
}

// Write encodes the table and writes it atomically: the file appears under
// its final name only once fully written and synced, so an interrupted run
// never leaves a truncated catalog behind.
func Write(path string, t *Table) error {
	if err := t.checkRows(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	header := t.Header
	header.NumRows = t.NumRows()
	header.Blocks = make([]BlockInfo, len(t.Fields))

	enc := sharedEncoder()
	compressed := make([][]byte, len(t.Fields))
	offset := int64(0)
	for i := range t.Fields {
		raw := encodeField(&t.Fields[i])
		compressed[i] = enc.EncodeAll(raw, nil)
		header.Blocks[i] = BlockInfo{
			Name:           t.Fields[i].Name,
			Type:           t.Fields[i].Type,
			Offset:         offset,
			CompressedSize: int64(len(compressed[i])),
			RawSize:        int64(len(raw)),
		}
		offset += int64(len(compressed[i]))
	}

	headerJSON, err := json.Marshal(&header)
	if err != nil {
		return fmt.Errorf("writing %s: encoding header: %w", path, err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer pending.Cleanup()

	preamble := make([]byte, preambleSize)
	copy(preamble, magic)
	binary.LittleEndian.PutUint32(preamble[4:], formatVersion)
	binary.LittleEndian.PutUint32(preamble[8:], uint32(len(headerJSON)))
	if _, err := pending.Write(preamble); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if _, err := pending.Write(headerJSON); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for i := range compressed {
		if _, err := pending.Write(compressed[i]); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadHeader decodes just the header, leaving all column blocks untouched.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header, _, err := readHeader(f, path)
	if err != nil {
		return nil, err
	}
	return header, nil
}

// Read decodes the named columns, or every column when none are named.
// Column blocks are fetched and decompressed concurrently, at most
// DefaultReadWorkers at a time.
func Read(path string, fields ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, dataStart, err := readHeader(f, path)
	if err != nil {
		return nil, err
	}

	blocks := header.Blocks
	if len(fields) > 0 {
		blocks, err = selectBlocks(header.Blocks, fields)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	table := &Table{Header: *header, Fields: make([]Field, len(blocks))}
	dec := sharedDecoder()

	var g errgroup.Group
	g.SetLimit(DefaultReadWorkers)
	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			buf := make([]byte, block.CompressedSize)
			if _, err := f.ReadAt(buf, dataStart+block.Offset); err != nil {
				return fmt.Errorf("reading %s: block %q: %w", path, block.Name, err)
			}
			raw, err := dec.DecodeAll(buf, nil)
			if err != nil {
				return fmt.Errorf("reading %s: block %q: %w", path, block.Name, err)
			}
			if int64(len(raw)) != block.RawSize {
				return fmt.Errorf("reading %s: block %q: decoded %d bytes, directory says %d",
					path, block.Name, len(raw), block.RawSize)
			}
			field, err := decodeField(block, raw)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			table.Fields[i] = field
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

func readHeader(f *os.File, path string) (*Header, int64, error) {
	preamble := make([]byte, preambleSize)
	if _, err := f.ReadAt(preamble, 0); err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if string(preamble[:4]) != magic {
		return nil, 0, fmt.Errorf("reading %s: %w", path, ErrBadMagic)
	}
	if v := binary.LittleEndian.Uint32(preamble[4:]); v != formatVersion {
		return nil, 0, fmt.Errorf("reading %s: unsupported format version %d", path, v)
	}
	headerLen := binary.LittleEndian.Uint32(preamble[8:])
	headerJSON := make([]byte, headerLen)
	if _, err := f.ReadAt(headerJSON, preambleSize); err != nil {
		return nil, 0, fmt.Errorf("reading %s: header: %w", path, err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, 0, fmt.Errorf("reading %s: decoding header: %w", path, err)
	}
	return &header, preambleSize + int64(headerLen), nil
}

func selectBlocks(all []BlockInfo, fields []string) ([]BlockInfo, error) {
	byName := make(map[string]BlockInfo, len(all))
	names := make([]string, len(all))
	for i, b := range all {
		byName[b.Name] = b
		names[i] = b.Name
	}
	out := make([]BlockInfo, 0, len(fields))
	for _, name := range fields {
		b, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("field %q not present (have %s)", name, strings.Join(names, ", "))
		}
		out = append(out, b)
	}
	return out, nil
}

func encodeField(f *Field) []byte {
	size := fieldTypeSizes[f.Type]
	buf := make([]byte, f.rows()*size)
	switch f.Type {
	case Float32:
		for i, v := range f.F32 {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
	case Int64:
		for i, v := range f.I64 {
			binary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
		}
	}
	return buf
}

func decodeField(block BlockInfo, raw []byte) (Field, error) {
	size, ok := fieldTypeSizes[block.Type]
	if !ok {
		return Field{}, fmt.Errorf("block %q: unknown field type %q", block.Name, block.Type)
	}
	if int64(len(raw))%size != 0 {
		return Field{}, fmt.Errorf("block %q: %d bytes is not a whole number of %s elements",
			block.Name, len(raw), block.Type)
	}
	n := int64(len(raw)) / size
	field := Field{Name: block.Name, Type: block.Type}
	switch block.Type {
	case Float32:
		field.F32 = make([]float32, n)
		for i := range field.F32 {
			field.F32[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case Int64:
		field.I64 = make([]int64, n)
		for i := range field.I64 {
			field.I64[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
		}
	}
	return field, nil
}
