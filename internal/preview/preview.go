// Package preview serves bounded slices of a potentially very large row set:
// case-insensitive filtering, fixed-size pagination and viewport
// virtualization, all derived deterministically from the current run.
//
// An Index is built once per ingestion run over that run's immutable rows.
// Search, page and page size are the only mutable state; every change to the
// query, the underlying rows (a new Index) or the page size resets the page
// to 1, so no stale pagination can outlive its inputs.
package preview

import (
	"sort"
	"strings"
	"sync"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

// DefaultPageSize is the page size used when the caller passes none.
const DefaultPageSize = 50

// Row is one preview row: the original 1-based row index plus the cells of
// the mapped columns, in column order.
type Row struct {
	Index int      `json:"index"`
	Cells []string `json:"cells"`
}

// PageView is one page of filtered rows.
type PageView struct {
	Rows       []Row  `json:"rows"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	PageCount  int    `json:"pageCount"`
	TotalRows  int    `json:"totalRows"`
	FilteredBy string `json:"filteredBy,omitempty"`
}

// Index answers filtered, paginated and virtualized reads over one run's
// rows. Safe for concurrent use.
type Index struct {
	headers []string // mapped header labels, column order
	columns []int    // source column index per mapped header
	rows    []ingest.RawRow
	search  []string // precomputed lowercase search text per row

	mu       sync.Mutex
	query    string
	filtered []int // row indices matching query, ascending
	page     int
	pageSize int
}

// NewIndex builds a preview index over a run's rows. Only columns that mapped
// to a canonical field participate in display and search; when the same label
// occurs twice, only the first column holds the mapping.
func NewIndex(res *ingest.Result) *Index {
	var headers []string
	var columns []int
	taken := make(map[schema.Field]bool)
	for i, label := range res.Headers {
		field, ok := res.FieldFor(label)
		if !ok || taken[field] {
			continue
		}
		taken[field] = true
		headers = append(headers, label)
		columns = append(columns, i)
	}

	ix := &Index{
		headers:  headers,
		columns:  columns,
		rows:     res.Rows,
		search:   make([]string, len(res.Rows)),
		page:     1,
		pageSize: DefaultPageSize,
	}
	for i, row := range res.Rows {
		ix.search[i] = ix.searchText(row)
	}
	ix.filtered = ix.allIndices()
	return ix
}

// Headers returns the mapped header labels in column order.
func (ix *Index) Headers() []string {
	return ix.headers
}

// SetQuery replaces the active filter. A changed query recomputes the match
// set and resets the page to 1; setting the same query is a no-op.
func (ix *Index) SetQuery(query string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if query == ix.query {
		return
	}
	ix.query = query
	ix.filtered = ix.match(query)
	ix.page = 1
}

// SetPageSize changes the page size and resets the page to 1.
func (ix *Index) SetPageSize(size int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if size <= 0 {
		size = DefaultPageSize
	}
	if size == ix.pageSize {
		return
	}
	ix.pageSize = size
	ix.page = 1
}

// SetPage moves to the given 1-based page, clamped to the valid range.
func (ix *Index) SetPage(page int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.page = clampPage(page, ix.pageCountLocked())
}

// Query applies query, page size and page in one step with the reset
// semantics of the individual setters, then returns the resulting page.
func (ix *Index) Query(query string, page, pageSize int) PageView {
	ix.SetQuery(query)
	if pageSize > 0 {
		ix.SetPageSize(pageSize)
	}
	if page > 0 {
		ix.SetPage(page)
	}
	return ix.CurrentPage()
}

// CurrentPage returns the active page of filtered rows.
func (ix *Index) CurrentPage() PageView {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pageCount := ix.pageCountLocked()
	page := clampPage(ix.page, pageCount)

	lo := (page - 1) * ix.pageSize
	hi := lo + ix.pageSize
	if hi > len(ix.filtered) {
		hi = len(ix.filtered)
	}

	rows := make([]Row, 0, hi-lo)
	for _, ri := range ix.filtered[lo:hi] {
		rows = append(rows, ix.rowAt(ri))
	}

	return PageView{
		Rows:       rows,
		Page:       page,
		PageSize:   ix.pageSize,
		PageCount:  pageCount,
		TotalRows:  len(ix.filtered),
		FilteredBy: ix.query,
	}
}

// FilteredCount returns how many rows match the active query.
func (ix *Index) FilteredCount() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.filtered)
}

// WindowRows returns the filtered rows inside a virtualization window, for
// the un-paginated browsing mode.
func (ix *Index) WindowRows(vp Viewport) (Window, []Row) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	w := ComputeWindow(len(ix.filtered), vp)
	rows := make([]Row, 0, w.End-w.Start)
	for _, ri := range ix.filtered[w.Start:w.End] {
		rows = append(rows, ix.rowAt(ri))
	}
	return w, rows
}

func (ix *Index) rowAt(ri int) Row {
	row := ix.rows[ri]
	cells := make([]string, len(ix.columns))
	for i, col := range ix.columns {
		if col < len(row) {
			cells[i] = row[col]
		}
	}
	return Row{Index: ri + 1, Cells: cells}
}

// match returns the indices of rows whose mapped cells contain the query,
// case-insensitively. An empty query matches everything.
func (ix *Index) match(query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ix.allIndices()
	}

	var out []int
	for i, text := range ix.search {
		if strings.Contains(text, query) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func (ix *Index) allIndices() []int {
	out := make([]int, len(ix.rows))
	for i := range out {
		out[i] = i
	}
	return out
}

// searchText joins a row's mapped cells lowercased. The separator keeps a
// query from matching across a cell boundary.
func (ix *Index) searchText(row ingest.RawRow) string {
	cells := make([]string, 0, len(ix.columns))
	for _, col := range ix.columns {
		if col < len(row) {
			cells = append(cells, strings.ToLower(row[col]))
		}
	}
	return strings.Join(cells, "\x00")
}

func (ix *Index) pageCountLocked() int {
	if len(ix.filtered) == 0 {
		return 1
	}
	return (len(ix.filtered) + ix.pageSize - 1) / ix.pageSize
}

func clampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}
