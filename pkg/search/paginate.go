package search

import (
	"encoding/base64"
	"strconv"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// DefaultPageLimit applies when the caller sets no limit.
const DefaultPageLimit = 20

// EncodeCursor encodes a zero-based offset as an opaque cursor. Cursors are
// recomputable from the offset alone; there is no cursor store, so writes
// between pages can shift results.
func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor recovers the offset. An empty or unreadable cursor is offset
// zero.
func DecodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Paginate slices the ranked-and-filtered items at the cursor's offset.
func Paginate(items []types.ResultItem, page types.Pagination) ([]types.ResultItem, types.PageInfo) {
	limit := page.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	offset := DecodeCursor(page.Cursor)
	total := len(items)

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	info := types.PageInfo{
		Cursor:  EncodeCursor(offset),
		Limit:   limit,
		Total:   total,
		HasMore: offset+limit < total,
	}
	if info.HasMore {
		info.NextCursor = EncodeCursor(offset + limit)
	}
	return items[start:end], info
}
