// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package snapshot persists the catalog as two artifacts that are only ever
// written and read as a pair:
//
//   - vectors.bin: a small header followed by the raw float32 matrix
//     (little-endian, row-major).
//   - catalog.json: the ordered id list and per-id metadata.
//
// # Storage Format
//
// vectors.bin header (little-endian):
//
//	magic      [4]byte "RSVM"
//	version    uint16
//	generation uint64
//	rows       uint32
//	dim        uint32
//
// catalog.json records the same generation, row count and dimension plus a
// SHA-256 checksum of the matrix bytes. Both files are written and synced to
// temp files before either is renamed into place; vectors.bin is renamed
// first and catalog.json last, so a crash between the two renames is
// detected on load as a generation mismatch.
package snapshot

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelscope/internal/models"
)

const (
	// VectorsFile is the matrix artifact name.
	VectorsFile = "vectors.bin"

	// CatalogFile is the id/metadata artifact name.
	CatalogFile = "catalog.json"

	formatVersion uint16 = 1
	headerSize           = 4 + 2 + 8 + 4 + 4
)

var magic = [4]byte{'R', 'S', 'V', 'M'}

var (
	// ErrNotFound is returned by Load when no snapshot has been saved.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInconsistent is returned by Load when the two artifacts disagree.
	ErrInconsistent = errors.New("snapshot: vectors and catalog are inconsistent")
)

// Data is one persisted catalog.
type Data struct {
	Generation uint64
	SavedAt    time.Time
	IDs        []int
	Vectors    [][]float32
	Metadata   map[int]models.Metadata
}

type catalogFile struct {
	Version    uint16            `json:"version"`
	Generation uint64            `json:"generation"`
	Count      int               `json:"count"`
	Dimension  int               `json:"dimension"`
	Checksum   string            `json:"checksum"`
	SavedAt    time.Time         `json:"saved_at"`
	IDs        []int             `json:"ids"`
	Movies     []models.Metadata `json:"movies"`
}

// Store reads and writes snapshots in one directory.
type Store struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
	rename func(oldpath, newpath string) error
}

// NewStore creates dir if needed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "snapshot").Logger(),
		rename: os.Rename,
	}, nil
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string { return s.dir }

// Save writes d. Nothing is written when d is malformed.
func (s *Store) Save(ctx context.Context, d *Data) error {
	if len(d.IDs) != len(d.Vectors) {
		return fmt.Errorf("save snapshot: %d ids but %d vectors", len(d.IDs), len(d.Vectors))
	}
	dim := 0
	if len(d.Vectors) > 0 {
		dim = len(d.Vectors[0])
	}

	cf := catalogFile{
		Version:    formatVersion,
		Generation: d.Generation,
		Count:      len(d.IDs),
		Dimension:  dim,
		SavedAt:    d.SavedAt,
		IDs:        d.IDs,
		Movies:     make([]models.Metadata, len(d.IDs)),
	}
	if cf.SavedAt.IsZero() {
		cf.SavedAt = time.Now().UTC()
	}
	for i, id := range d.IDs {
		m, ok := d.Metadata[id]
		if !ok {
			return fmt.Errorf("save snapshot: no metadata for id %d", id)
		}
		if len(d.Vectors[i]) != dim {
			return fmt.Errorf("save snapshot: row %d has %d values, want %d", i, len(d.Vectors[i]), dim)
		}
		m.ID = id
		cf.Movies[i] = m
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	hash := sha256.New()
	vecTmp, err := writeTemp(s.dir, VectorsFile, func(w io.Writer) error {
		return writeMatrix(io.MultiWriter(w, hash), d.Generation, d.Vectors, dim)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", VectorsFile, err)
	}
	defer func() { _ = os.Remove(vecTmp) }() //nolint:errcheck // no-op after a successful rename
	cf.Checksum = hex.EncodeToString(hash.Sum(nil))

	catTmp, err := writeTemp(s.dir, CatalogFile, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(&cf)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", CatalogFile, err)
	}
	defer func() { _ = os.Remove(catTmp) }() //nolint:errcheck // no-op after a successful rename

	if err := s.rename(vecTmp, filepath.Join(s.dir, VectorsFile)); err != nil {
		return fmt.Errorf("install %s: %w", VectorsFile, err)
	}
	if err := s.rename(catTmp, filepath.Join(s.dir, CatalogFile)); err != nil {
		return fmt.Errorf("install %s: %w", CatalogFile, err)
	}

	s.logger.Debug().
		Uint64("generation", d.Generation).
		Int("items", len(d.IDs)).
		Dur("duration", time.Since(start)).
		Msg("Snapshot saved")
	return nil
}

// Load reads and cross-checks both artifacts.
func (s *Store) Load(_ context.Context) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vecPath := filepath.Join(s.dir, VectorsFile)
	catPath := filepath.Join(s.dir, CatalogFile)

	_, vecErr := os.Stat(vecPath)
	_, catErr := os.Stat(catPath)
	switch {
	case errors.Is(vecErr, os.ErrNotExist) && errors.Is(catErr, os.ErrNotExist):
		return nil, ErrNotFound
	case errors.Is(vecErr, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %s missing", ErrInconsistent, VectorsFile)
	case errors.Is(catErr, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %s missing", ErrInconsistent, CatalogFile)
	}

	raw, err := os.ReadFile(catPath) //nolint:gosec // path is built from the configured data dir
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CatalogFile, err)
	}
	var cf catalogFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInconsistent, CatalogFile, err)
	}
	if len(cf.IDs) != len(cf.Movies) || cf.Count != len(cf.IDs) {
		return nil, fmt.Errorf("%w: %s lists %d ids and %d movies (count %d)",
			ErrInconsistent, CatalogFile, len(cf.IDs), len(cf.Movies), cf.Count)
	}

	f, err := os.Open(vecPath) //nolint:gosec // path is built from the configured data dir
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", VectorsFile, err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", VectorsFile, err)
	}

	hash := sha256.New()
	gen, vectors, err := readMatrix(io.TeeReader(bufio.NewReader(f), hash), info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInconsistent, err)
	}

	switch {
	case gen != cf.Generation:
		return nil, fmt.Errorf("%w: generation %d in %s, %d in %s",
			ErrInconsistent, gen, VectorsFile, cf.Generation, CatalogFile)
	case len(vectors) != len(cf.IDs):
		return nil, fmt.Errorf("%w: %d vectors for %d ids", ErrInconsistent, len(vectors), len(cf.IDs))
	case len(vectors) > 0 && len(vectors[0]) != cf.Dimension:
		return nil, fmt.Errorf("%w: dimension %d, catalog says %d", ErrInconsistent, len(vectors[0]), cf.Dimension)
	case hex.EncodeToString(hash.Sum(nil)) != cf.Checksum:
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInconsistent)
	}

	d := &Data{
		Generation: cf.Generation,
		SavedAt:    cf.SavedAt,
		IDs:        cf.IDs,
		Vectors:    vectors,
		Metadata:   make(map[int]models.Metadata, len(cf.IDs)),
	}
	for i, id := range cf.IDs {
		m := cf.Movies[i]
		m.ID = id
		d.Metadata[id] = m
	}
	return d, nil
}

func writeMatrix(w io.Writer, generation uint64, rows [][]float32, dim int) error {
	if len(rows) > math.MaxUint32 || dim > math.MaxUint32 {
		return fmt.Errorf("matrix too large: %d x %d", len(rows), dim)
	}

	bw := bufio.NewWriter(w)
	var hdr [headerSize]byte
	copy(hdr[0:4], magic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], formatVersion)
	binary.LittleEndian.PutUint64(hdr[6:14], generation)
	binary.LittleEndian.PutUint32(hdr[14:18], uint32(len(rows))) //nolint:gosec // bounded above
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(dim))       //nolint:gosec // bounded above
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	buf := make([]byte, 4*dim)
	for i, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), dim)
		}
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readMatrix decodes vectors.bin. size is the file size and must match the
// header exactly.
func readMatrix(r io.Reader, size int64) (uint64, [][]float32, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	if [4]byte(hdr[0:4]) != magic {
		return 0, nil, errors.New("bad magic")
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != formatVersion {
		return 0, nil, fmt.Errorf("unsupported format version %d", v)
	}
	gen := binary.LittleEndian.Uint64(hdr[6:14])
	rows := int(binary.LittleEndian.Uint32(hdr[14:18]))
	dim := int(binary.LittleEndian.Uint32(hdr[18:22]))
	if want := int64(headerSize) + int64(rows)*int64(dim)*4; want != size {
		return 0, nil, fmt.Errorf("file is %d bytes, header implies %d", size, want)
	}

	vectors := make([][]float32, rows)
	buf := make([]byte, 4*dim)
	for i := 0; i < rows; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, nil, fmt.Errorf("read row %d: %w", i, err)
		}
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		vectors[i] = row
	}
	return gen, vectors, nil
}

// writeTemp writes name's content to a synced temp file in dir and returns
// its path. The caller renames or removes it.
func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	err = write(tmp)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // write error takes precedence
		return "", err
	}
	return tmpName, nil
}
