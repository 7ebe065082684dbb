package repository

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
)

// ParquetBarSink archives each batch as one file under
// dir/provider/symbol/interval/<first>-<last>.parquet.
type ParquetBarSink struct {
	dir string
}

var (
	_ domrepo.BarSink    = (*ParquetBarSink)(nil)
	_ domrepo.BarArchive = (*ParquetBarSink)(nil)
)

func NewParquetBarSink(dir string) *ParquetBarSink {
	return &ParquetBarSink{dir: dir}
}

func (s *ParquetBarSink) WriteBars(ctx context.Context, key models.SeriesKey, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.seriesDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d-%d.parquet", bars[0].TS, bars[len(bars)-1].TS))
	if err := parquet.WriteFile(path, bars); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadSeries loads every archived bar of key, ordering files by their first
// and last timestamps.
func (s *ParquetBarSink) ReadSeries(ctx context.Context, key models.SeriesKey) ([]models.Bar, error) {
	files, err := filepath.Glob(filepath.Join(s.seriesDir(key), "*.parquet"))
	if err != nil {
		return nil, err
	}
	archived := make([]archiveFile, 0, len(files))
	for _, f := range files {
		af, ok := parseArchiveName(f)
		if !ok {
			continue
		}
		archived = append(archived, af)
	}
	slices.SortFunc(archived, func(a, b archiveFile) int {
		if a.first != b.first {
			return cmp.Compare(a.first, b.first)
		}
		return cmp.Compare(a.last, b.last)
	})

	out := make([]models.Bar, 0)
	for _, af := range archived {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := parquet.ReadFile[models.Bar](af.path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", af.path, err)
		}
		out = append(out, bars...)
	}
	return out, nil
}

type archiveFile struct {
	path        string
	first, last int64
}

// parseArchiveName reads <first>-<last>.parquet. The first ts may be negative.
func parseArchiveName(path string) (archiveFile, bool) {
	name := strings.TrimSuffix(filepath.Base(path), ".parquet")
	i := strings.LastIndex(name, "-")
	if i <= 0 {
		return archiveFile{}, false
	}
	first, err1 := strconv.ParseInt(name[:i], 10, 64)
	last, err2 := strconv.ParseInt(name[i+1:], 10, 64)
	if err1 != nil || err2 != nil {
		return archiveFile{}, false
	}
	return archiveFile{path: path, first: first, last: last}, true
}

func (s *ParquetBarSink) Close() error { return nil }

func (s *ParquetBarSink) seriesDir(key models.SeriesKey) string {
	return filepath.Join(s.dir, safeSegment(key.Provider), safeSegment(key.Symbol), safeSegment(key.Interval))
}

// safeSegment keeps symbols like "BRK/B" or "X:BTCUSD" inside one directory level.
func safeSegment(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_").Replace(s)
}
