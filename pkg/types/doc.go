// Package types defines the graph record shapes, search request/response
// contracts, and error taxonomy shared by every mnemograph component.
//
// Graph nodes are decoded once at the query boundary into a tagged union of
// concrete record types (MemoryRecord, CodeRecord, SummaryRecord,
// PatternRecord) rather than being passed around as property bags.
package types
