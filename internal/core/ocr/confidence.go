package ocr

import (
	"regexp"
	"strings"
)

var (
	rePAN      = regexp.MustCompile(`\b[a-z]{5}[0-9]{4}[a-z]\b`)
	reAadhaar  = regexp.MustCompile(`\b[0-9]{4} ?[0-9]{4} ?[0-9]{4}\b`)
	reDate     = regexp.MustCompile(`\b[0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{2,4}\b|\b[0-9]{4}-[0-9]{2}-[0-9]{2}\b`)
	rePincode  = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)
	reKeywords = regexp.MustCompile(`\b(government|india|income tax|aadhaar|name|dob|date of birth|father|address|bank|account|ifsc|statement|employee|employment|designation)\b`)
)

// heuristicConfidence scores decoded text by how much it looks like an
// identity document: identifier patterns, dates, pincodes, labels, length.
func heuristicConfidence(txt string) float32 {
	l := strings.ToLower(txt)
	score := float32(0.2)
	if rePAN.MatchString(l) || reAadhaar.MatchString(l) {
		score += 0.2
	}
	if reDate.MatchString(l) {
		score += 0.15
	}
	if rePincode.MatchString(l) {
		score += 0.1
	}
	if n := len(reKeywords.FindAllString(l, -1)); n > 0 {
		score += min(float32(n)*0.05, 0.2)
	}
	if len(txt) > 120 {
		score += 0.1
	}
	return min(score, 1.0)
}

// blendConfidence weights the engine's own confidence over the heuristic
// when the engine reported one.
func blendConfidence(engine, heuristic float32) float32 {
	if engine <= 0 {
		return heuristic
	}
	return min(0.7*engine+0.3*heuristic, 1.0)
}
