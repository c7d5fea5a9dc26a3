package entities

import (
	"slices"
	"time"
)

// AnswerRecord is the per-question state of a user's selection.
// Selected is kept sorted and free of duplicates.
type AnswerRecord struct {
	Selected    []int      `json:"options"`
	Submitted   bool       `json:"isSubmitted"`
	SubmittedAt *time.Time `json:"submittedDate,omitempty"`
}

// NewAnswerRecord creates a record from arbitrary option indices.
func NewAnswerRecord(selected ...int) *AnswerRecord {
	r := &AnswerRecord{}
	for _, idx := range selected {
		r.add(idx)
	}
	return r
}

// Has reports whether option idx is selected.
func (r *AnswerRecord) Has(idx int) bool {
	_, found := slices.BinarySearch(r.Selected, idx)
	return found
}

// IsEmpty reports whether nothing is selected.
func (r *AnswerRecord) IsEmpty() bool {
	return r == nil || len(r.Selected) == 0
}

// Replace makes idx the only selected option.
func (r *AnswerRecord) Replace(idx int) {
	r.Selected = []int{idx}
}

// Toggle flips membership of idx.
func (r *AnswerRecord) Toggle(idx int) {
	if pos, found := slices.BinarySearch(r.Selected, idx); found {
		r.Selected = slices.Delete(r.Selected, pos, pos+1)
		return
	}
	r.add(idx)
}

// Submit marks the record as submitted at the given time.
func (r *AnswerRecord) Submit(at time.Time) {
	r.Submitted = true
	r.SubmittedAt = &at
}

// Clone returns a deep copy of the record.
func (r *AnswerRecord) Clone() *AnswerRecord {
	if r == nil {
		return nil
	}
	out := &AnswerRecord{
		Selected:  slices.Clone(r.Selected),
		Submitted: r.Submitted,
	}
	if r.SubmittedAt != nil {
		at := *r.SubmittedAt
		out.SubmittedAt = &at
	}
	return out
}

func (r *AnswerRecord) add(idx int) {
	pos, found := slices.BinarySearch(r.Selected, idx)
	if found {
		return
	}
	r.Selected = slices.Insert(r.Selected, pos, idx)
}

// Answers is the sparse answer ledger keyed by question position.
type Answers map[int]*AnswerRecord

// Clone returns a deep copy of the ledger.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for pos, rec := range a {
		out[pos] = rec.Clone()
	}
	return out
}
