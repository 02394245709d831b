package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemograph/mnemograph/pkg/types"
)

func makeItems(n int) []types.ResultItem {
	items := make([]types.ResultItem, n)
	for i := range items {
		items[i] = types.ResultItem{ID: fmt.Sprintf("id-%d", i)}
	}
	return items
}

func TestPaginateRoundTrip(t *testing.T) {
	items := makeItems(25)

	var collected []types.ResultItem
	cursor := ""
	for {
		page, info := Paginate(items, types.Pagination{Cursor: cursor, Limit: 10})
		collected = append(collected, page...)
		if !info.HasMore {
			break
		}
		cursor = info.NextCursor
	}

	// Concatenated pages reproduce the full list with no gaps or repeats.
	require.Len(t, collected, 25)
	for i, item := range collected {
		assert.Equal(t, fmt.Sprintf("id-%d", i), item.ID)
	}
}

func TestPaginateHasMore(t *testing.T) {
	items := makeItems(10)

	_, info := Paginate(items, types.Pagination{Limit: 10})
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextCursor)
	assert.Equal(t, 10, info.Total)

	_, info = Paginate(items, types.Pagination{Limit: 9})
	assert.True(t, info.HasMore)
}

func TestPaginateBeyondEnd(t *testing.T) {
	items := makeItems(3)
	page, info := Paginate(items, types.Pagination{Cursor: EncodeCursor(50), Limit: 10})
	assert.Empty(t, page)
	assert.False(t, info.HasMore)
}

func TestDecodeCursorGarbage(t *testing.T) {
	assert.Equal(t, 0, DecodeCursor(""))
	assert.Equal(t, 0, DecodeCursor("not-base64!"))
	assert.Equal(t, 0, DecodeCursor(EncodeCursor(-5)))
	assert.Equal(t, 7, DecodeCursor(EncodeCursor(7)))
}

func TestPaginateDefaultLimit(t *testing.T) {
	items := makeItems(30)
	page, info := Paginate(items, types.Pagination{})
	assert.Len(t, page, DefaultPageLimit)
	assert.Equal(t, DefaultPageLimit, info.Limit)
}
