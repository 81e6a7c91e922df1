package domain

// Channel identifies one logical stream whose URL may need salvaging.
type Channel struct {
	// Identity is the canonical unique identifier (playlist id or slug).
	Identity string `json:"identity"`

	// Name is the human-readable channel name.
	Name string `json:"name"`

	// URL is the originally advertised stream location.
	URL string `json:"url"`

	// Favorite marks channels the user pinned; favorites are re-probed first.
	Favorite bool `json:"favorite,omitempty"`
}

// Alternate is one crowd-sourced or curated replacement URL for a channel.
type Alternate struct {
	ID          int64   `json:"id,omitempty"`
	Channel     string  `json:"channel"`
	URL         string  `json:"url"`
	SuccessRate float64 `json:"success_rate,omitempty"` // curated entries only
	Upvotes     int     `json:"upvotes"`
	Downvotes   int     `json:"downvotes"`
}

// Votes returns the net vote count used for ranking user submissions.
func (a Alternate) Votes() int {
	return a.Upvotes - a.Downvotes
}
