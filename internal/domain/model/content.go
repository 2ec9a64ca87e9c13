package model

import (
	"fmt"
	"math"

	"chall_zone/internal/common"
)

// PageSize is the row count of every paginated read. Page 0 is the most
// recent page.
const PageSize = 10

// lastPage is the largest page whose offset fits in an int.
const lastPage = math.MaxInt / PageSize

// PageOffset converts a page number to a row offset. Negative pages read as 0
// and pages past lastPage read as lastPage, which is always empty.
func PageOffset(page int) int {
	if page < 0 {
		page = 0
	}
	if page > lastPage {
		page = lastPage
	}
	return page * PageSize
}

// ContentKind is the closed set of votable, listable content. The zero value
// is not a kind.
type ContentKind uint8

const (
	KindChallenge ContentKind = iota + 1
	KindComment
	KindSubmission
)

var contentKindNames = map[ContentKind]string{
	KindChallenge:  "challenge",
	KindComment:    "comment",
	KindSubmission: "submission",
}

// ParseContentKind maps a wire name to a kind.
func ParseContentKind(s string) (ContentKind, error) {
	for k, name := range contentKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", common.ErrInvalidTargetKind, s)
}

func (k ContentKind) Valid() bool {
	_, ok := contentKindNames[k]
	return ok
}

func (k ContentKind) String() string {
	if name, ok := contentKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ContentKind(%d)", uint8(k))
}

func (k ContentKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidTargetKind, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ContentKind) UnmarshalText(b []byte) error {
	parsed, err := ParseContentKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// FeedItem is one row of a merged timeline. Only the husk types in this
// package implement it.
type FeedItem interface {
	Kind() ContentKind
	ItemID() int64
	CreatedAt() int64
	feedItem()
}

// Reply is a comment or a submission attached to a challenge.
type Reply interface {
	FeedItem
	ParentChallengeID() int64
	reply()
}

// VoteTarget names exactly one votable row.
type VoteTarget struct {
	Kind ContentKind `json:"kind"`
	ID   int64       `json:"id"`
}

type Vote struct {
	Target  VoteTarget `json:"target"`
	VoterID int64      `json:"voter_id"`
}
