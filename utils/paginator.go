package utils

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Sequence is a finite, restartable, ordered source of items.
// Len and Slice may be called any number of times; each call reflects the
// same ordering.
type Sequence[T any] interface {
	Len(ctx context.Context) (int, error)
	Slice(ctx context.Context, offset, limit int) ([]T, error)
}

// SliceSequence adapts an in-memory slice to Sequence.
type SliceSequence[T any] []T

func (s SliceSequence[T]) Len(context.Context) (int, error) { return len(s), nil }

func (s SliceSequence[T]) Slice(_ context.Context, offset, limit int) ([]T, error) {
	if offset >= len(s) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	out := make([]T, end-offset)
	copy(out, s[offset:end])
	return out, nil
}

// Page is one window of a paginated sequence. Number is 1-based.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Total    int
	HasNext  bool
	HasPrev  bool
}

// Paginate returns the requested page of seq. Out of range page numbers
// clamp to the first or last page; an empty sequence yields one empty page.
func Paginate[T any](ctx context.Context, seq Sequence[T], pageSize, requested int) (Page[T], error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	total, err := seq.Len(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	numPages := NumPages(total, pageSize)
	number := ClampPage(requested, numPages)

	items := []T{}
	if total > 0 {
		items, err = seq.Slice(ctx, (number-1)*pageSize, pageSize)
		if err != nil {
			return Page[T]{}, err
		}
	}

	return Page[T]{
		Items:    items,
		Number:   number,
		NumPages: numPages,
		Total:    total,
		HasNext:  number < numPages,
		HasPrev:  number > 1,
	}, nil
}

// NumPages is the page count for total items; never less than one.
func NumPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = 10
	}
	if n := (total + pageSize - 1) / pageSize; n > 0 {
		return n
	}
	return 1
}

// ClampPage moves a requested page number into [1, numPages].
func ClampPage(requested, numPages int) int {
	if requested > numPages {
		requested = numPages
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// ParsePage reads a ?page= query value. Anything that is not a number means
// page 1; numbers too large for an int mean the last page.
func ParsePage(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return math.MaxInt
		}
		return 1
	}
	return n
}
