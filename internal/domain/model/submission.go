package model

// Submission is the stored submission row. The solution script lives in an
// Asset and is only ever handled as text.
type Submission struct {
	ID              int64  `json:"id"`
	Created         int64  `json:"created"`
	ChallengeID     int64  `json:"challenge_id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	AuthorID        int64  `json:"author_id"`
	SolutionAssetID *int64 `json:"solution_asset_id,omitempty"`
}

// ScriptUpload is a replacement solution file as received from the caller.
type ScriptUpload struct {
	Filename string
	Bytes    []byte
}

// SubmissionEditable describes a submission edit. A nil Script and nil
// ScriptID keep the current asset. ScriptID points the submission at an
// existing asset. Script uploads a replacement and retires the old asset.
type SubmissionEditable struct {
	Title    string
	Body     string
	ScriptID *int64
	Script   *ScriptUpload
}

type SubmissionHusk struct {
	ID               int64   `json:"id"`
	Created          int64   `json:"created"`
	ChallengeID      int64   `json:"challenge_id"`
	Title            string  `json:"title"`
	Body             string  `json:"body"`
	AuthorID         int64   `json:"author_id"`
	AuthorName       string  `json:"author_name"`
	AuthorImageID    *int64  `json:"author_image_id,omitempty"`
	SolutionAssetID  *int64  `json:"solution_asset_id,omitempty"`
	SolutionFilename *string `json:"solution_filename,omitempty"`
	Votes            int64   `json:"votes"`
	HasMyVote        bool    `json:"has_my_vote"`
}

func (s *SubmissionHusk) Kind() ContentKind        { return KindSubmission }
func (s *SubmissionHusk) ItemID() int64            { return s.ID }
func (s *SubmissionHusk) CreatedAt() int64         { return s.Created }
func (s *SubmissionHusk) ParentChallengeID() int64 { return s.ChallengeID }
func (s *SubmissionHusk) feedItem()                {}
func (s *SubmissionHusk) reply()                   {}
