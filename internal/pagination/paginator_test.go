package pagination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceBacked(rows []int) *Paginator[int] {
	fetch := func(ctx context.Context, limit, offset int) ([]int, error) {
		if offset >= len(rows) {
			return nil, nil
		}
		end := offset + limit
		if end > len(rows) {
			end = len(rows)
		}
		return rows[offset:end], nil
	}
	count := func(ctx context.Context) (int, error) {
		return len(rows), nil
	}
	return New(fetch, count)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPageCount(t *testing.T) {
	cases := []struct {
		total, perPage, want int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{11, 10, 2},
		{20, 10, 2},
	}

	for _, tc := range cases {
		p := sliceBacked(seq(tc.total))
		p.SetMaxPerPage(tc.perPage)
		page, err := p.CurrentPageResults(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tc.want, page.PageCount, "total=%d perPage=%d", tc.total, tc.perPage)
	}
}

func TestAllPagesConcatenateToFullResult(t *testing.T) {
	rows := seq(23)
	p := sliceBacked(rows)
	p.SetMaxPerPage(5)

	var got []int
	page, err := p.CurrentPageResults(context.Background())
	require.NoError(t, err)
	for n := 1; n <= page.PageCount; n++ {
		p.SetCurrentPage(n)
		page, err = p.CurrentPageResults(context.Background())
		require.NoError(t, err)
		got = append(got, page.Items...)
	}

	assert.Equal(t, rows, got)
}

func TestPageBeyondEndIsEmptyNotError(t *testing.T) {
	p := sliceBacked(seq(7))
	p.SetMaxPerPage(5)
	p.SetCurrentPage(40)

	page, err := p.CurrentPageResults(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 2, page.PageCount)
	assert.Equal(t, 40, page.CurrentPage)
}

func TestCurrentPageClampsToOne(t *testing.T) {
	p := sliceBacked(seq(3))
	p.SetMaxPerPage(2)
	p.SetCurrentPage(0)

	page, err := p.CurrentPageResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, []int{1, 2}, page.Items)

	p.SetCurrentPage(-5)
	page, err = p.CurrentPageResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestMaxPerPageClampsToOne(t *testing.T) {
	p := sliceBacked(seq(3))
	p.SetMaxPerPage(0)

	page, err := p.CurrentPageResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.MaxPerPage)
	assert.Equal(t, []int{1}, page.Items)
	assert.Equal(t, 3, page.PageCount)
}

func TestSingleMessagePage(t *testing.T) {
	p := sliceBacked(seq(1))
	p.SetMaxPerPage(10)
	p.SetCurrentPage(1)

	page, err := p.CurrentPageResults(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.PageCount)
}
