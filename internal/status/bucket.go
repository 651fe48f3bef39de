package status

import "fmt"

type Bucket int

const (
	BucketComplete Bucket = iota
	BucketInProgress
	BucketOverdue
	BucketWithIssue
	BucketIdle
)

// Buckets lists every bucket in report order.
var Buckets = []Bucket{BucketComplete, BucketInProgress, BucketOverdue, BucketWithIssue, BucketIdle}

func (b Bucket) String() string {
	switch b {
	case BucketComplete:
		return "complete"
	case BucketInProgress:
		return "in_progress"
	case BucketOverdue:
		return "overdue"
	case BucketWithIssue:
		return "with_issue"
	case BucketIdle:
		return "idle"
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown bucket %q", s)
}

// Route places a classified card into a report bucket. Any issue wins over the
// status. An issue-free card with Unknown status belongs nowhere and ok is false.
func Route(r Result) (b Bucket, ok bool) {
	if r.HasIssues() {
		return BucketWithIssue, true
	}
	switch r.Status {
	case AllComplete:
		return BucketComplete, true
	case InProgress:
		return BucketInProgress, true
	case Overdue:
		return BucketOverdue, true
	case Idle:
		return BucketIdle, true
	case Unknown:
		return 0, false
	}
	return 0, false
}

func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, err := ParseBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
