// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/reelscope/internal/catalog"
	"github.com/tomtom215/reelscope/internal/logging"
	"github.com/tomtom215/reelscope/internal/models"
)

type fakeProvider struct {
	popular  [][]int
	topRated [][]int
	failIDs  map[int]bool
	listErr  error

	mu      sync.Mutex
	fetched []int
}

func page(pages [][]int, n int) *models.Page {
	if n > len(pages) {
		return &models.Page{Page: n, TotalPages: len(pages)}
	}
	p := &models.Page{Page: n, TotalPages: len(pages)}
	for _, id := range pages[n-1] {
		p.Results = append(p.Results, models.Summary{ID: id})
	}
	return p
}

func (f *fakeProvider) ListPopular(_ context.Context, n int) (*models.Page, error) {
	return page(f.popular, n), nil
}

func (f *fakeProvider) ListTopRated(_ context.Context, n int) (*models.Page, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return page(f.topRated, n), nil
}

func (f *fakeProvider) FetchDetail(_ context.Context, id int) (*models.Metadata, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()
	if f.failIDs[id] {
		return nil, fmt.Errorf("detail %d: boom", id)
	}
	return &models.Metadata{ID: id, Title: fmt.Sprintf("movie-%d", id)}, nil
}

func (f *fakeProvider) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// fakeEncoder returns (3,4) for every text except titles containing "zero".
type fakeEncoder struct {
	dim        int
	batchCalls atomic.Int32
}

func (e *fakeEncoder) Dimension() int { return e.dim }

func (e *fakeEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "zero") {
		return []float32{0, 0}, nil
	}
	return []float32{3, 4}, nil
}

type fakeBatchEncoder struct{ fakeEncoder }

func (e *fakeBatchEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls.Add(1)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func ids(items []catalog.Item) []int {
	out := make([]int, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInitializeSplitsPopularAndTopRated(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{
		popular:  [][]int{{1, 2, 3}, {4, 5}},
		topRated: [][]int{{2, 6, 7}},
	}
	p := New(prov, &fakeEncoder{dim: 2}, Config{}, logging.Nop())

	items, report, err := p.Initialize(context.Background(), 4)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got, want := ids(items), []int{1, 2, 6, 7}; !equalInts(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if report.Accepted != 4 || report.Failed != 0 || report.Requested != 4 {
		t.Errorf("report = %+v", report)
	}
	if v := items[0].Vector; v[0] < 0.59 || v[0] > 0.61 {
		t.Errorf("vector not normalized: %v", v)
	}
	// id 3 was never fetched during the popular phase
	if n := prov.fetchCount(); n != 4 {
		t.Errorf("fetches = %d, want 4", n)
	}
}

func TestInitializeFailuresDoNotCountTowardQuota(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{
		popular:  [][]int{{1, 2, 3, 4}},
		topRated: [][]int{},
		failIDs:  map[int]bool{2: true},
	}
	p := New(prov, &fakeEncoder{dim: 2}, Config{}, logging.Nop())

	items, report, err := p.Initialize(context.Background(), 6)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(items), []int{1, 3, 4}; !equalInts(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
}

func TestInitializeDropsZeroVectors(t *testing.T) {
	t.Parallel()

	prov := &zeroProvider{fakeProvider: &fakeProvider{popular: [][]int{{1}}}}
	p := New(prov, &fakeEncoder{dim: 2}, Config{}, logging.Nop())

	_, report, err := p.Initialize(context.Background(), 2)
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("err = %v, want ErrNoItems", err)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
}

// zeroProvider renders every movie to a text the fake encoder maps to a zero vector.
type zeroProvider struct{ *fakeProvider }

func (z *zeroProvider) FetchDetail(_ context.Context, id int) (*models.Metadata, error) {
	return &models.Metadata{ID: id, Title: "zero"}, nil
}

func TestInitializeFatalListingErrorAborts(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{
		popular: [][]int{{1}},
		listErr: context.Canceled,
	}
	p := New(prov, &fakeEncoder{dim: 2}, Config{}, logging.Nop())

	items, _, err := p.Initialize(context.Background(), 4)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil", items)
	}
}

func TestInitializeTransientListingErrorEndsPhase(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{
		popular: [][]int{{1, 2}},
		listErr: errors.New("status 500"),
	}
	p := New(prov, &fakeEncoder{dim: 2}, Config{}, logging.Nop())

	items, _, err := p.Initialize(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(items); !equalInts(got, []int{1, 2}) {
		t.Errorf("ids = %v", got)
	}
}

func TestInitializePageCeiling(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{
		popular:  [][]int{{1}, {2}, {3}},
		topRated: [][]int{{4}, {5}},
	}
	p := New(prov, &fakeEncoder{dim: 2}, Config{PageCeiling: 1}, logging.Nop())

	items, report, err := p.Initialize(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(items); !equalInts(got, []int{1, 4}) {
		t.Errorf("ids = %v, want [1 4]", got)
	}
	if report.Pages != 2 {
		t.Errorf("Pages = %d, want 2", report.Pages)
	}
}

func TestInitializeUsesBatchEncoder(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{popular: [][]int{{1, 2, 3, 4, 5}}}
	enc := &fakeBatchEncoder{fakeEncoder{dim: 2}}
	p := New(prov, enc, Config{BatchSize: 2}, logging.Nop())

	items, _, err := p.Initialize(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 5 {
		t.Fatalf("len(items) = %d, want 5", len(items))
	}
	if got := enc.batchCalls.Load(); got != 3 {
		t.Errorf("batch calls = %d, want 3", got)
	}
}

// shortBatchEncoder drops the last vector of any batch containing movie-1.
type shortBatchEncoder struct{ fakeBatchEncoder }

func (e *shortBatchEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.fakeBatchEncoder.EmbedBatch(ctx, texts)
	for _, t := range texts {
		if strings.HasPrefix(t, "movie-1\n") {
			return out[:len(out)-1], err
		}
	}
	return out, err
}

func TestInitializeSkipsShortBatch(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{popular: [][]int{{1, 2, 3, 4}}}
	enc := &shortBatchEncoder{fakeBatchEncoder{fakeEncoder{dim: 2}}}
	p := New(prov, enc, Config{BatchSize: 2}, logging.Nop())

	items, report, err := p.Initialize(context.Background(), 10)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := ids(items); !equalInts(got, []int{3, 4}) {
		t.Errorf("ids = %v, want [3 4]", got)
	}
	if report.Failed != 2 {
		t.Errorf("failed = %d, want 2", report.Failed)
	}
}

type fakeCommitter struct {
	have      map[int]bool
	committed []catalog.Item
	err       error
}

func (c *fakeCommitter) Contains(id int) bool { return c.have[id] }

func (c *fakeCommitter) Commit(_ context.Context, item catalog.Item) error {
	if c.err != nil {
		return c.err
	}
	c.committed = append(c.committed, item)
	return nil
}

func TestEnsureItem(t *testing.T) {
	t.Parallel()

	prov := &fakeProvider{failIDs: map[int]bool{9: true}}
	p := New(prov, &fakeEncoder{dim: 2}, Config{}, logging.Nop())
	ctx := context.Background()

	c := &fakeCommitter{have: map[int]bool{1: true}}

	if err := p.EnsureItem(ctx, 1, c); err != nil {
		t.Errorf("EnsureItem(existing) error = %v", err)
	}
	if prov.fetchCount() != 0 {
		t.Error("existing item should not be fetched")
	}

	if err := p.EnsureItem(ctx, 5, c); err != nil {
		t.Fatalf("EnsureItem(new) error = %v", err)
	}
	if len(c.committed) != 1 || c.committed[0].ID != 5 {
		t.Errorf("committed = %+v", c.committed)
	}

	if err := p.EnsureItem(ctx, 9, c); !errors.Is(err, ErrPartialIngestion) {
		t.Errorf("EnsureItem(failing) err = %v, want ErrPartialIngestion", err)
	}
}

func TestEnsureItemDuplicateCommitIsSuccess(t *testing.T) {
	t.Parallel()

	p := New(&fakeProvider{}, &fakeEncoder{dim: 2}, Config{}, logging.Nop())
	c := &fakeCommitter{err: fmt.Errorf("append: %w", catalog.ErrDuplicateID)}

	if err := p.EnsureItem(context.Background(), 3, c); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
