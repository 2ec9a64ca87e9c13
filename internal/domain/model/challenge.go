package model

import "github.com/gosimple/slug"

// Challenge is the stored challenge row.
type Challenge struct {
	ID                 int64  `json:"id"`
	Created            int64  `json:"created"` // epoch seconds
	Title              string `json:"title"`
	Body               string `json:"body"`
	AcceptsSubmissions bool   `json:"accepts_submissions"`
	CategoryID         int64  `json:"category_id"`
	AuthorID           int64  `json:"author_id"`
}

type ChallengeEditable struct {
	Title              string
	Body               string
	CategoryID         int64
	AcceptsSubmissions bool
}

// ChallengeHusk is the feed and detail projection of a challenge: the row
// joined with its category and author, annotated with votes for one viewer.
type ChallengeHusk struct {
	ID                 int64  `json:"id"`
	Created            int64  `json:"created"`
	Title              string `json:"title"`
	Slug               string `json:"slug"`
	Body               string `json:"body"`
	AcceptsSubmissions bool   `json:"accepts_submissions"`
	CategoryID         int64  `json:"category_id"`
	CategoryName       string `json:"category_name"`
	AuthorID           int64  `json:"author_id"`
	AuthorName         string `json:"author_name"`
	AuthorImageID      *int64 `json:"author_image_id,omitempty"`
	Votes              int64  `json:"votes"`
	HasMyVote          bool   `json:"has_my_vote"`
}

func (c *ChallengeHusk) Kind() ContentKind { return KindChallenge }
func (c *ChallengeHusk) ItemID() int64     { return c.ID }
func (c *ChallengeHusk) CreatedAt() int64  { return c.Created }
func (c *ChallengeHusk) feedItem()         {}

// ChallengeSlug builds the permalink fragment shown next to a challenge id.
func ChallengeSlug(title string) string {
	return slug.Make(title)
}
