// Package score computes the engagement score used to rank discovered posts.
package score

import "math"

// Input carries the engagement counters a score is computed from. Zero
// values are fine; the score degrades gracefully when views or follower
// counts are missing.
type Input struct {
	Likes           int64
	Comments        int64
	Shares          int64
	Views           int64
	AuthorFollowers int64
}

// Weights applied to the raw counters. Shares matter most since a share
// propagates the post to a new audience; comments signal active interest.
const (
	commentWeight = 8
	shareWeight   = 15
)

// Engagement computes the score for one post, rounded to two decimals.
//
// The base rate is weighted interactions per hundred views, falling back
// to per hundred followers, falling back to a flat fraction of the
// weighted total when neither denominator is known. High absolute volume
// and comment-heavy posts get multiplied up, and the result never drops
// below 5% of the weighted total so a post with huge raw numbers cannot
// score near zero just because its view count is enormous.
func Engagement(in Input) float64 {
	weighted := float64(in.Likes + in.Comments*commentWeight + in.Shares*shareWeight)

	var rate float64
	switch {
	case in.Views > 0:
		rate = weighted / float64(in.Views) * 100
	case in.AuthorFollowers > 0:
		rate = weighted / float64(in.AuthorFollowers) * 100
	default:
		rate = weighted * 0.1
	}

	if weighted > 500 {
		rate *= 1.5
	} else if weighted > 100 {
		rate *= 1.2
	}

	if float64(in.Comments) > float64(in.Likes)*0.1 {
		rate *= 1.3
	}

	if floor := weighted * 0.05; rate < floor {
		rate = floor
	}

	return math.Round(rate*100) / 100
}
