package pagination

import (
	"reflect"
	"testing"
)

func TestIndexInvariants(t *testing.T) {
	for total := 0; total <= 60; total++ {
		for per := 1; per <= 12; per++ {
			p := New(total, per, 1)
			wantPages := (total + per - 1) / per
			if p.TotalPages() != wantPages {
				t.Fatalf("total=%d per=%d: TotalPages = %d, want %d", total, per, p.TotalPages(), wantPages)
			}
			for page := -2; page <= wantPages+2; page++ {
				p.GoToPage(page)
				start, end := p.StartIndex(), p.EndIndex()
				if start < 0 || start > end || end > total {
					t.Fatalf("total=%d per=%d page=%d: start=%d end=%d out of bounds", total, per, page, start, end)
				}
			}
		}
	}
}

func TestEmptyList(t *testing.T) {
	p := New(0, 10, 3)
	if p.TotalPages() != 0 {
		t.Errorf("TotalPages = %d, want 0", p.TotalPages())
	}
	if p.CurrentPage() != 1 {
		t.Errorf("CurrentPage = %d, want 1", p.CurrentPage())
	}
	if p.StartIndex() != 0 || p.EndIndex() != 0 {
		t.Errorf("indexes = [%d,%d), want [0,0)", p.StartIndex(), p.EndIndex())
	}
	if p.HasNextPage() || p.HasPrevPage() {
		t.Error("empty list should have no next or previous page")
	}
	if got := p.PageNumbers(); len(got) != 0 {
		t.Errorf("PageNumbers = %v, want empty", got)
	}
}

func TestGoToPageClamps(t *testing.T) {
	p := New(120, 50, 1)
	if p.TotalPages() != 3 {
		t.Fatalf("TotalPages = %d, want 3", p.TotalPages())
	}

	tests := []struct {
		n    int
		want int
	}{
		{99, 3},
		{-5, 1},
		{0, 1},
		{2, 2},
		{3, 3},
	}
	for _, tt := range tests {
		p.GoToPage(tt.n)
		if p.CurrentPage() != tt.want {
			t.Errorf("GoToPage(%d): CurrentPage = %d, want %d", tt.n, p.CurrentPage(), tt.want)
		}
	}

	p.GoToPage(3)
	if p.StartIndex() != 100 || p.EndIndex() != 120 {
		t.Errorf("last page indexes = [%d,%d), want [100,120)", p.StartIndex(), p.EndIndex())
	}
}

func TestNextPrevGuards(t *testing.T) {
	p := New(25, 10, 1)

	p.PrevPage()
	if p.CurrentPage() != 1 {
		t.Errorf("PrevPage on first page moved to %d", p.CurrentPage())
	}

	p.NextPage()
	p.NextPage()
	if p.CurrentPage() != 3 {
		t.Fatalf("CurrentPage = %d, want 3", p.CurrentPage())
	}
	p.NextPage()
	if p.CurrentPage() != 3 {
		t.Errorf("NextPage on last page moved to %d", p.CurrentPage())
	}
	if p.HasNextPage() {
		t.Error("HasNextPage should be false on last page")
	}
	if !p.HasPrevPage() {
		t.Error("HasPrevPage should be true on last page")
	}
}

func TestInitialPageClamped(t *testing.T) {
	if got := New(30, 10, 7).CurrentPage(); got != 3 {
		t.Errorf("CurrentPage = %d, want 3", got)
	}
	if got := New(30, 10, 0).CurrentPage(); got != 1 {
		t.Errorf("CurrentPage = %d, want 1", got)
	}
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name  string
		total int
		page  int
		want  []int
	}{
		{"few pages", 30, 2, []int{1, 2, 3}},
		{"exactly five", 50, 5, []int{1, 2, 3, 4, 5}},
		{"start", 100, 1, []int{1, 2, 3, 4, Ellipsis, 10}},
		{"start edge", 100, 3, []int{1, 2, 3, 4, Ellipsis, 10}},
		{"end", 100, 10, []int{1, Ellipsis, 7, 8, 9, 10}},
		{"end edge", 100, 8, []int{1, Ellipsis, 7, 8, 9, 10}},
		{"middle", 100, 5, []int{1, Ellipsis, 4, 5, 6, Ellipsis, 10}},
		{"six pages middle", 60, 4, []int{1, Ellipsis, 3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.total, 10, tt.page)
			if got := p.PageNumbers(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageNumbers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageNumbersRecomputedOnChange(t *testing.T) {
	p := New(100, 10, 1)
	first := p.PageNumbers()
	first[0] = 42 // callers must not be able to corrupt the memo

	p.GoToPage(5)
	if got := p.PageNumbers(); !reflect.DeepEqual(got, []int{1, Ellipsis, 4, 5, 6, Ellipsis, 10}) {
		t.Errorf("after GoToPage(5): %v", got)
	}
	p.GoToPage(1)
	if got := p.PageNumbers(); got[0] != 1 {
		t.Errorf("memo was mutated by caller: %v", got)
	}
}

func TestSetTotalItemsReclamps(t *testing.T) {
	p := New(100, 10, 10)
	p.SetTotalItems(35)
	if p.CurrentPage() != 4 {
		t.Errorf("CurrentPage = %d, want 4", p.CurrentPage())
	}
}

func TestSetItemsPerPageResets(t *testing.T) {
	p := New(100, 10, 6)
	p.SetItemsPerPage(25)
	if p.CurrentPage() != 1 || p.TotalPages() != 4 {
		t.Errorf("page=%d pages=%d, want 1 and 4", p.CurrentPage(), p.TotalPages())
	}
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	p := New(len(items), 2, 3)
	if got := Slice(items, p); !reflect.DeepEqual(got, []string{"e"}) {
		t.Errorf("Slice = %v, want [e]", got)
	}
	p.GoToPage(1)
	if got := Slice(items, p); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Slice = %v, want [a b]", got)
	}
}
