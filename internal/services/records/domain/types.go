// Package domain defines core types and interfaces for records
package domain

import "time"

// Record is one input text record
// Seq is the stable 0-based position inside its source dataset
type Record struct {
	ID        string // uuid
	Seq       int64
	Text      string
	TextNorm  string
	Source    string
	ExtID     *string // caller-supplied id column, when the dataset has one
	CreatedAt time.Time
}

// AfterKey supports stable keyset pagination over seq
type AfterKey struct {
	Seq int64
	Set bool // zero value = from start
}

// ListInput defines the input parameters for listing records
type ListInput struct {
	Source string   // optional filter
	After  AfterKey // zero value = from start
	Limit  int      // hard-capped in service
}

// IngestInput configures a CSV ingest
type IngestInput struct {
	Source     string // dataset name, required
	TextColumn string // default "text"
	IDColumn   string // optional external id column
}

// IngestReport summarizes one ingest
type IngestReport struct {
	Rows     int64 // data rows read
	Inserted int64 // rows written (conflicts excluded)
	Skipped  int64 // rows already present
}
