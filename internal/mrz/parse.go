/**
 * MRZ line extraction and field mapping
 *
 * Maps raw OCR text onto the fixed-position field layouts of the three
 * standard MRZ formats: TD1 (ID cards, 3x30), TD2 (2x36) and TD3
 * (passports, 2x44). Fields are sliced positionally; check digits are
 * carried through untouched and never verified here. A record is
 * accepted when it yields a document number or a given name.
 */

package mrz

import (
	"regexp"
	"strings"
)

// mrzLinePattern matches a plausible MRZ line after whitespace
// stripping. The lower bound tolerates OCR dropping trailing filler.
var mrzLinePattern = regexp.MustCompile(`^[A-Z0-9<]{28,44}$`)

// ExtractLines filters OCR output down to plausible MRZ lines. OCR
// frequently injects spaces mid-line, so spaces are stripped before
// matching.
func ExtractLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
		if mrzLinePattern.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// Parse attempts to map extracted lines onto a known MRZ layout. It
// returns the field record, the raw MRZ text, and whether a record was
// accepted.
func Parse(lines []string) (map[string]string, string, bool) {
	// TD1: three consecutive 30-character lines
	for i := 0; i+2 < len(lines); i++ {
		if isLen(lines[i], 30) && isLen(lines[i+1], 30) && isLen(lines[i+2], 30) {
			l1, l2, l3 := pad(lines[i], 30), pad(lines[i+1], 30), pad(lines[i+2], 30)
			if record := parseTD1(l1, l2, l3); accepted(record) {
				return record, l1 + "\n" + l2 + "\n" + l3, true
			}
		}
	}

	// TD3: two consecutive 44-character lines
	for i := 0; i+1 < len(lines); i++ {
		if isLen(lines[i], 44) && isLen(lines[i+1], 44) {
			l1, l2 := pad(lines[i], 44), pad(lines[i+1], 44)
			if record := parseTD3(l1, l2); accepted(record) {
				return record, l1 + "\n" + l2, true
			}
		}
	}

	// TD2: two consecutive 36-character lines
	for i := 0; i+1 < len(lines); i++ {
		if isLen(lines[i], 36) && isLen(lines[i+1], 36) {
			l1, l2 := pad(lines[i], 36), pad(lines[i+1], 36)
			if record := parseTD2(l1, l2); accepted(record) {
				return record, l1 + "\n" + l2, true
			}
		}
	}

	return nil, "", false
}

// isLen tolerates up to two characters of OCR loss at line end.
func isLen(line string, want int) bool {
	return len(line) >= want-2 && len(line) <= want
}

// pad restores trailing filler dropped by OCR.
func pad(line string, want int) string {
	if len(line) >= want {
		return line[:want]
	}
	return line + strings.Repeat("<", want-len(line))
}

// accepted applies the minimum-content rule: a record without either a
// document number or a given name is noise, not a match.
func accepted(record map[string]string) bool {
	if record == nil {
		return false
	}
	return record["document_number"] != "" || record["given_name"] != ""
}

// parseTD3 slices the passport layout (2 lines x 44).
func parseTD3(l1, l2 string) map[string]string {
	surname, given := splitNames(l1[5:44])
	return map[string]string{
		"mrz_type":        "TD3",
		"document_type":   cleanField(l1[0:2]),
		"issuer_code":     cleanField(l1[2:5]),
		"surname":         surname,
		"given_name":      given,
		"document_number": cleanField(l2[0:9]),
		"nationality":     cleanField(l2[10:13]),
		"birth_date":      cleanDate(l2[13:19]),
		"sex":             cleanSex(l2[20:21]),
		"expiry_date":     cleanDate(l2[21:27]),
		"optional_data":   cleanField(l2[28:42]),
	}
}

// parseTD2 slices the 2x36 layout used by some ID documents.
func parseTD2(l1, l2 string) map[string]string {
	surname, given := splitNames(l1[5:36])
	return map[string]string{
		"mrz_type":        "TD2",
		"document_type":   cleanField(l1[0:2]),
		"issuer_code":     cleanField(l1[2:5]),
		"surname":         surname,
		"given_name":      given,
		"document_number": cleanField(l2[0:9]),
		"nationality":     cleanField(l2[10:13]),
		"birth_date":      cleanDate(l2[13:19]),
		"sex":             cleanSex(l2[20:21]),
		"expiry_date":     cleanDate(l2[21:27]),
		"optional_data":   cleanField(l2[28:35]),
	}
}

// parseTD1 slices the ID-card layout (3 lines x 30).
func parseTD1(l1, l2, l3 string) map[string]string {
	surname, given := splitNames(l3)
	return map[string]string{
		"mrz_type":        "TD1",
		"document_type":   cleanField(l1[0:2]),
		"issuer_code":     cleanField(l1[2:5]),
		"surname":         surname,
		"given_name":      given,
		"document_number": cleanField(l1[5:14]),
		"nationality":     cleanField(l2[15:18]),
		"birth_date":      cleanDate(l2[0:6]),
		"sex":             cleanSex(l2[7:8]),
		"expiry_date":     cleanDate(l2[8:14]),
		"optional_data":   cleanField(l1[15:30]),
	}
}

// splitNames separates the surname from given names on the "<<"
// delimiter. Some documents carry an empty surname; the given-name
// half still counts toward acceptance.
func splitNames(field string) (surname, given string) {
	parts := strings.SplitN(field, "<<", 2)
	surname = cleanField(parts[0])
	if len(parts) == 2 {
		given = cleanField(parts[1])
	}
	return surname, given
}

// cleanField turns filler into spaces and trims.
func cleanField(s string) string {
	return strings.TrimSpace(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '<'
	}), " "))
}

// cleanDate keeps only a plausible YYMMDD value.
func cleanDate(s string) string {
	s = strings.Trim(s, "<")
	if len(s) != 6 {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// cleanSex normalizes the sex marker; unspecified filler maps to "".
func cleanSex(s string) string {
	switch s {
	case "M", "F":
		return s
	}
	return ""
}
