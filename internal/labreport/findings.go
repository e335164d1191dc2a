// Package labreport pulls test results out of the text of a lab report.
package labreport

import (
	"fmt"
	"regexp"
	"strings"
)

// Finding is one test result read from a report line.
type Finding struct {
	TestName       string `json:"test_name"`
	Value          string `json:"value"`
	Units          string `json:"units"`
	ReferenceRange string `json:"reference_range"`
}

// name, value, optional units, optional "lo - hi" reference range
var findingPattern = regexp.MustCompile(`(?i)([A-Za-z \(\)\-/]+)\s*[:\-]?\s*([\d\.]+)\s*([^\s\d]+)?(?:.*?(\d+\.?\d*)\s*[-–]\s*(\d+\.?\d*)\s*)?`)

var hasDigit = regexp.MustCompile(`\d`)

// ExtractFindings scans text for every "name value units range" pattern, in
// order of appearance.
func ExtractFindings(text string) []Finding {
	findings := []Finding{}
	for _, m := range findingPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || !hasDigit.MatchString(m[2]) {
			continue
		}
		f := Finding{
			TestName: name,
			Value:    m[2],
			Units:    m[3],
		}
		if m[4] != "" && m[5] != "" {
			f.ReferenceRange = m[4] + "-" + m[5]
		}
		findings = append(findings, f)
	}
	return findings
}

// Summary renders findings as the human-readable block returned to clients.
func Summary(findings []Finding) string {
	lines := make([]string, 0, len(findings))
	for _, f := range findings {
		lines = append(lines, fmt.Sprintf("%s: %s %s (Ref: %s)", f.TestName, f.Value, f.Units, f.ReferenceRange))
	}
	return "Extracted results:\n" + strings.Join(lines, "\n")
}
