package engage

import "testing"

func TestDetectWall(t *testing.T) {
	detectors := DefaultWallDetectors()

	tests := []struct {
		name     string
		status   int
		body     string
		wantWall string
		want     bool
	}{
		{
			name:   "clean post page",
			status: 200,
			body:   `<html><meta property="og:description" content="120 curtidas"></html>`,
			want:   false,
		},
		{
			name:     "instagram login redirect",
			status:   200,
			body:     `<html><form action="/accounts/login/"></form></html>`,
			wantWall: "login",
			want:     true,
		},
		{
			name:     "facebook portuguese login",
			status:   200,
			body:     `<html>Entre no Facebook para continuar</html>`,
			wantWall: "login",
			want:     true,
		},
		{
			name:     "consent interstitial",
			status:   200,
			body:     `<html><a href="https://consent.instagram.com/flow">Allow</a></html>`,
			wantWall: "consent",
			want:     true,
		},
		{
			name:     "challenge page",
			status:   403,
			body:     `<html><div class="g-recaptcha"></div></html>`,
			wantWall: "captcha",
			want:     true,
		},
		{
			name:     "throttled by status",
			status:   429,
			body:     ``,
			wantWall: "rate_limit",
			want:     true,
		},
		{
			name:     "throttled by body",
			status:   200,
			body:     `Please wait a few minutes before you try again.`,
			wantWall: "rate_limit",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wall, got := DetectWall(tt.status, []byte(tt.body), detectors)
			if got != tt.want {
				t.Fatalf("DetectWall = %v, want %v", got, tt.want)
			}
			if wall != tt.wantWall {
				t.Errorf("wall = %q, want %q", wall, tt.wantWall)
			}
		})
	}
}
