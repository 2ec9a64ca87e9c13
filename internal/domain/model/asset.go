package model

// Asset is an uploaded blob. It has no owner column; whichever row holds its
// id owns it. Submission scripts are stored here as inert bytes.
type Asset struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Value    []byte `json:"-"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VoteStats counts votes by content kind.
type VoteStats struct {
	Challenge  int64 `json:"challenge"`
	Comment    int64 `json:"comment"`
	Submission int64 `json:"submission"`
}

// Total sums the three kinds.
func (s VoteStats) Total() int64 {
	return s.Challenge + s.Comment + s.Submission
}
