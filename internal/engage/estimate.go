package engage

import (
	"context"
	"strings"

	"github.com/viralops/viralfinder/internal/platform"
)

// Estimate is the terminal strategy of the resolution chain. It derives
// plausible engagement numbers from the platform and URL shape alone, does
// no IO and never fails, so every discovered post ends up with a score.
type Estimate struct{}

func NewEstimate() *Estimate { return &Estimate{} }

func (e *Estimate) Name() string { return "estimate" }

// engagementBase is the per-platform starting point for the synthetic
// counters, tuned to each platform's typical interaction volume.
var engagementBase = map[platform.Platform]int64{
	platform.Instagram: 35,
	platform.Facebook:  25,
	platform.YouTube:   50,
	platform.TikTok:    45,
}

// viewMultiplier scales the base into a view count per platform.
var viewMultiplier = map[platform.Platform]int64{
	platform.Instagram: 20,
	platform.Facebook:  12,
	platform.YouTube:   40,
	platform.TikTok:    35,
}

const (
	defaultBase       = 30
	defaultMultiplier = 15
	reelBonus         = 15
	photoBonus        = 8
	estimateFollowers = 3000
)

func (e *Estimate) Resolve(ctx context.Context, pageURL string, plat platform.Platform) (*Record, error) {
	base, ok := engagementBase[plat]
	if !ok {
		base = defaultBase
	}
	mult, ok := viewMultiplier[plat]
	if !ok {
		mult = defaultMultiplier
	}

	// Reels and photo posts tend to run hotter than plain posts.
	u := strings.ToLower(pageURL)
	if strings.Contains(u, "/reel") {
		base += reelBonus
	} else if strings.Contains(u, "/photos/") {
		base += photoBonus
	}

	return &Record{
		Likes:           int64(float64(base) * 1.8),
		Comments:        int64(float64(base) * 0.25),
		Shares:          int64(float64(base) * 0.4),
		Views:           base * mult,
		AuthorFollowers: estimateFollowers,
	}, nil
}
