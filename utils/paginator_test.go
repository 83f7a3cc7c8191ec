package utils

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func seqOf(n int) SliceSequence[int] {
	s := make(SliceSequence[int], n)
	for i := range s {
		s[i] = i + 1
	}
	return s
}

func TestPaginate_ThirteenItems(t *testing.T) {
	ctx := context.Background()
	seq := seqOf(13)

	first, err := Paginate[int](ctx, seq, 10, 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(first.Items) != 10 || !first.HasNext || first.HasPrev {
		t.Fatalf("page 1: got %d items next=%v prev=%v", len(first.Items), first.HasNext, first.HasPrev)
	}
	if first.NumPages != 2 || first.Total != 13 {
		t.Fatalf("page 1: got num_pages=%d total=%d", first.NumPages, first.Total)
	}

	second, err := Paginate[int](ctx, seq, 10, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(second.Items) != 3 || second.HasNext || !second.HasPrev {
		t.Fatalf("page 2: got %d items next=%v prev=%v", len(second.Items), second.HasNext, second.HasPrev)
	}
}

func TestPaginate_PagesReconstructSequence(t *testing.T) {
	ctx := context.Background()
	for _, n := range []int{0, 1, 9, 10, 11, 20, 37} {
		seq := seqOf(n)
		var got []int
		page, err := Paginate[int](ctx, seq, 10, 1)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for number := 1; number <= page.NumPages; number++ {
			p, err := Paginate[int](ctx, seq, 10, number)
			if err != nil {
				t.Fatalf("n=%d page=%d: %v", n, number, err)
			}
			got = append(got, p.Items...)
		}
		want := []int(seq)
		if n == 0 {
			want = nil
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("n=%d: pages joined to %v, want %v", n, got, want)
		}
	}
}

func TestPaginate_ClampsOutOfRange(t *testing.T) {
	ctx := context.Background()
	seq := seqOf(25)

	cases := []struct {
		requested int
		want      int
	}{
		{-3, 1},
		{0, 1},
		{3, 3},
		{4, 3},
		{1000, 3},
	}
	for _, c := range cases {
		p, err := Paginate[int](ctx, seq, 10, c.requested)
		if err != nil {
			t.Fatalf("requested %d: %v", c.requested, err)
		}
		if p.Number != c.want {
			t.Errorf("requested %d: got page %d, want %d", c.requested, p.Number, c.want)
		}
	}
}

func TestPaginate_EmptySequence(t *testing.T) {
	p, err := Paginate[int](context.Background(), SliceSequence[int]{}, 10, 5)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if p.Number != 1 || p.NumPages != 1 || len(p.Items) != 0 || p.HasNext || p.HasPrev {
		t.Fatalf("unexpected empty page: %+v", p)
	}
	if p.Items == nil {
		t.Fatal("items should be an empty slice, not nil")
	}
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"": 1, "abc": 1, "2": 2, " 7 ": 7, "-1": -1, "1.5": 1,
		"99999999999999999999":  math.MaxInt,
		"-99999999999999999999": 1,
	}
	for raw, want := range cases {
		if got := ParsePage(raw); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestPaginate_HugePageIsLastPage(t *testing.T) {
	p, err := Paginate[int](context.Background(), seqOf(13), 10, ParsePage("99999999999999999999"))
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if p.Number != 2 || len(p.Items) != 3 {
		t.Fatalf("got page %d with %d items, want last page with 3", p.Number, len(p.Items))
	}
}
