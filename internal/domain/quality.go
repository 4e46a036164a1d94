package domain

import "fmt"

// Quality is the 0-5 rating a user gives a single review of an item.
//
//	0 complete blackout
//	1 wrong, but recognised the answer
//	2 wrong, but the answer felt familiar
//	3 correct with serious difficulty
//	4 correct after some hesitation
//	5 perfect recall
type Quality int

// Quality bounds.
const (
	QualityMin Quality = 0
	QualityMax Quality = 5
)

// Valid reports whether q lies in the closed range 0..5.
func (q Quality) Valid() bool {
	return q >= QualityMin && q <= QualityMax
}

// ParseQuality converts a raw integer into a Quality, rejecting values
// outside 0..5. It never clamps.
func ParseQuality(v int) (Quality, error) {
	q := Quality(v)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidQuality, v)
	}
	return q, nil
}
