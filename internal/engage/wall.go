package engage

import (
	"bytes"
	"net/http"
)

// WallDetector examines a fetched post page to determine whether the
// platform served an interstitial instead of the post content.
type WallDetector func(statusCode int, body []byte) (detected bool, wall string)

// DefaultWallDetectors returns the standard list of interstitial detectors.
func DefaultWallDetectors() []WallDetector {
	return []WallDetector{
		detectLoginWall,
		detectConsentWall,
		detectCaptcha,
		detectRateLimit,
	}
}

// DetectWall runs a page through all provided detectors and returns the name
// of the first wall found. Pages behind a wall carry no real engagement
// numbers, so callers must treat a detection as a resolution miss.
func DetectWall(statusCode int, body []byte, detectors []WallDetector) (string, bool) {
	for _, d := range detectors {
		if detected, wall := d(statusCode, body); detected {
			return wall, true
		}
	}
	return "", false
}

// detectLoginWall looks for the login redirect pages Instagram and Facebook
// serve to unauthenticated clients they distrust.
func detectLoginWall(statusCode int, body []byte) (bool, string) {
	if bytes.Contains(body, []byte("loginForm")) ||
		bytes.Contains(body, []byte("/accounts/login")) ||
		bytes.Contains(body, []byte("Log in to Instagram")) ||
		bytes.Contains(body, []byte("Entre no Facebook")) ||
		bytes.Contains(body, []byte("login_form")) {
		return true, "login"
	}
	return false, ""
}

// detectConsentWall looks for cookie consent interstitials, common when the
// exit IP geolocates to a jurisdiction requiring them.
func detectConsentWall(statusCode int, body []byte) (bool, string) {
	if bytes.Contains(body, []byte("consent.instagram.com")) ||
		bytes.Contains(body, []byte("consent.facebook.com")) ||
		bytes.Contains(body, []byte("Allow the use of cookies")) {
		return true, "consent"
	}
	return false, ""
}

// detectCaptcha looks for challenge pages.
func detectCaptcha(statusCode int, body []byte) (bool, string) {
	if statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests || statusCode == http.StatusOK {
		if bytes.Contains(body, []byte("g-recaptcha")) ||
			bytes.Contains(body, []byte("h-captcha")) ||
			bytes.Contains(body, []byte("challenge_required")) {
			return true, "captcha"
		}
	}
	return false, ""
}

// detectRateLimit looks for throttling responses.
func detectRateLimit(statusCode int, body []byte) (bool, string) {
	if statusCode == http.StatusTooManyRequests {
		return true, "rate_limit"
	}
	if bytes.Contains(body, []byte("Please wait a few minutes before you try again")) {
		return true, "rate_limit"
	}
	return false, ""
}
