package model

// Comment is the stored comment row.
type Comment struct {
	ID          int64  `json:"id"`
	Created     int64  `json:"created"`
	ChallengeID int64  `json:"challenge_id"`
	Body        string `json:"body"`
	AuthorID    int64  `json:"author_id"`
}

type CommentEditable struct {
	Body string
}

type CommentHusk struct {
	ID            int64  `json:"id"`
	Created       int64  `json:"created"`
	Body          string `json:"body"`
	ChallengeID   int64  `json:"challenge_id"`
	AuthorID      int64  `json:"author_id"`
	AuthorName    string `json:"author_name"`
	AuthorImageID *int64 `json:"author_image_id,omitempty"`
	Votes         int64  `json:"votes"`
	HasMyVote     bool   `json:"has_my_vote"`
}

func (c *CommentHusk) Kind() ContentKind        { return KindComment }
func (c *CommentHusk) ItemID() int64            { return c.ID }
func (c *CommentHusk) CreatedAt() int64         { return c.Created }
func (c *CommentHusk) ParentChallengeID() int64 { return c.ChallengeID }
func (c *CommentHusk) feedItem()                {}
func (c *CommentHusk) reply()                   {}
