// Package pagination derives the visible page window over a list of items.
package pagination

// Ellipsis marks a gap in the list returned by PageNumbers.
const Ellipsis = -1

// DefaultItemsPerPage is used when a non-positive page size is supplied.
const DefaultItemsPerPage = 10

// maxListedPages is the largest page count rendered without ellipses.
const maxListedPages = 5

// Paginator tracks the current page over totalItems. It is not safe for
// concurrent use.
type Paginator struct {
	totalItems   int
	itemsPerPage int
	currentPage  int

	// PageNumbers memo, keyed on (currentPage, totalPages).
	memoPage  int
	memoTotal int
	memo      []int
}

// New returns a Paginator positioned at initialPage, clamped into range.
func New(totalItems, itemsPerPage, initialPage int) *Paginator {
	if totalItems < 0 {
		totalItems = 0
	}
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	p := &Paginator{
		totalItems:   totalItems,
		itemsPerPage: itemsPerPage,
	}
	p.currentPage = p.clamp(initialPage)
	return p
}

func (p *Paginator) TotalItems() int   { return p.totalItems }
func (p *Paginator) ItemsPerPage() int { return p.itemsPerPage }
func (p *Paginator) CurrentPage() int  { return p.currentPage }

// TotalPages is ceil(totalItems / itemsPerPage), or 0 for an empty list.
func (p *Paginator) TotalPages() int {
	return (p.totalItems + p.itemsPerPage - 1) / p.itemsPerPage
}

// StartIndex is the inclusive index of the first item on the current page.
func (p *Paginator) StartIndex() int {
	return (p.currentPage - 1) * p.itemsPerPage
}

// EndIndex is the exclusive index after the last item on the current page.
func (p *Paginator) EndIndex() int {
	return min(p.StartIndex()+p.itemsPerPage, p.totalItems)
}

func (p *Paginator) HasNextPage() bool { return p.currentPage < p.TotalPages() }
func (p *Paginator) HasPrevPage() bool { return p.currentPage > 1 }

// GoToPage moves to page n, clamped into [1, TotalPages].
func (p *Paginator) GoToPage(n int) {
	p.currentPage = p.clamp(n)
}

func (p *Paginator) NextPage() {
	if p.HasNextPage() {
		p.currentPage++
	}
}

func (p *Paginator) PrevPage() {
	if p.HasPrevPage() {
		p.currentPage--
	}
}

// SetTotalItems updates the item count, keeping the current page in range.
func (p *Paginator) SetTotalItems(n int) {
	if n < 0 {
		n = 0
	}
	p.totalItems = n
	p.currentPage = p.clamp(p.currentPage)
}

// SetItemsPerPage changes the page size and returns to the first page.
func (p *Paginator) SetItemsPerPage(n int) {
	if n <= 0 {
		n = DefaultItemsPerPage
	}
	p.itemsPerPage = n
	p.currentPage = 1
}

// PageNumbers returns the page buttons to render, with Ellipsis for gaps:
//
//	all pages when there are at most 5
//	1 2 3 4 … N          near the start
//	1 … N-3 N-2 N-1 N    near the end
//	1 … c-1 c c+1 … N    otherwise
func (p *Paginator) PageNumbers() []int {
	total := p.TotalPages()
	cur := p.currentPage
	if p.memo != nil && p.memoPage == cur && p.memoTotal == total {
		return append([]int(nil), p.memo...)
	}

	var pages []int
	switch {
	case total <= maxListedPages:
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
	case cur <= 3:
		pages = []int{1, 2, 3, 4, Ellipsis, total}
	case cur >= total-2:
		pages = []int{1, Ellipsis, total - 3, total - 2, total - 1, total}
	default:
		pages = []int{1, Ellipsis, cur - 1, cur, cur + 1, Ellipsis, total}
	}
	if pages == nil {
		pages = []int{}
	}

	p.memo, p.memoPage, p.memoTotal = pages, cur, total
	return append([]int(nil), pages...)
}

func (p *Paginator) clamp(n int) int {
	total := p.TotalPages()
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Slice returns the items on the paginator's current page.
func Slice[T any](items []T, p *Paginator) []T {
	start, end := p.StartIndex(), p.EndIndex()
	if end > len(items) {
		end = len(items)
	}
	if start > end {
		start = end
	}
	return items[start:end]
}
