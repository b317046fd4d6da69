package mrz

import (
	"strings"
	"testing"
)

// ICAO 9303 specimen data for Utopia / Anna Maria Eriksson.
const (
	td3Line1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	td3Line2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"

	td1Line1 = "I<UTOD231458907<<<<<<<<<<<<<<<"
	td1Line2 = "7408122F1204159UTO<<<<<<<<<<<6"
	td1Line3 = "ERIKSSON<<ANNA<MARIA<<<<<<<<<<"

	td2Line1 = "I<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<"
	td2Line2 = "D231458907UTO7408122F1204159<<<<<<<6"
)

func TestExtractLines(t *testing.T) {
	text := "PASSPORT\nUnited States of America\n" +
		td3Line1 + "\n" +
		"L8989 02C36UTO74 08122F1204159ZE184226B<<<<<10\n" + // OCR-injected spaces
		"short<line\n"

	lines := ExtractLines(text)
	if len(lines) != 2 {
		t.Fatalf("expected 2 MRZ lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != td3Line1 {
		t.Errorf("line 1 = %q", lines[0])
	}
	if lines[1] != td3Line2 {
		t.Errorf("spaces not stripped: %q", lines[1])
	}
}

func TestExtractLinesUppercases(t *testing.T) {
	lines := ExtractLines(strings.ToLower(td3Line1))
	if len(lines) != 1 || lines[0] != td3Line1 {
		t.Fatalf("lowercase OCR output not normalized: %v", lines)
	}
}

func TestExtractLinesRejectsInvalidCharset(t *testing.T) {
	lines := ExtractLines("P<UTOERIKSSON<<ANNA?MARIA<<<<<<<<<<<<<<<<<<<")
	if len(lines) != 0 {
		t.Fatalf("line with invalid character accepted: %v", lines)
	}
}

func TestParseTD3(t *testing.T) {
	record, raw, ok := Parse([]string{td3Line1, td3Line2})
	if !ok {
		t.Fatal("TD3 specimen not accepted")
	}
	if raw != td3Line1+"\n"+td3Line2 {
		t.Errorf("raw text = %q", raw)
	}

	want := map[string]string{
		"mrz_type":        "TD3",
		"document_type":   "P",
		"issuer_code":     "UTO",
		"surname":         "ERIKSSON",
		"given_name":      "ANNA MARIA",
		"document_number": "L898902C3",
		"nationality":     "UTO",
		"birth_date":      "740812",
		"sex":             "F",
		"expiry_date":     "120415",
		"optional_data":   "ZE184226B",
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("%s = %q, want %q", k, record[k], v)
		}
	}
}

func TestParseTD1(t *testing.T) {
	record, _, ok := Parse([]string{td1Line1, td1Line2, td1Line3})
	if !ok {
		t.Fatal("TD1 specimen not accepted")
	}

	want := map[string]string{
		"mrz_type":        "TD1",
		"document_type":   "I",
		"issuer_code":     "UTO",
		"surname":         "ERIKSSON",
		"given_name":      "ANNA MARIA",
		"document_number": "D23145890",
		"nationality":     "UTO",
		"birth_date":      "740812",
		"sex":             "F",
		"expiry_date":     "120415",
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("%s = %q, want %q", k, record[k], v)
		}
	}
}

func TestParseTD2(t *testing.T) {
	record, _, ok := Parse([]string{td2Line1, td2Line2})
	if !ok {
		t.Fatal("TD2 specimen not accepted")
	}

	want := map[string]string{
		"mrz_type":        "TD2",
		"document_type":   "I",
		"surname":         "ERIKSSON",
		"given_name":      "ANNA MARIA",
		"document_number": "D23145890",
		"birth_date":      "740812",
		"expiry_date":     "120415",
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("%s = %q, want %q", k, record[k], v)
		}
	}
}

func TestParseToleratesTruncatedLines(t *testing.T) {
	// OCR commonly drops a trailing filler character or two.
	record, _, ok := Parse([]string{td3Line1[:42], td3Line2[:43]})
	if !ok {
		t.Fatal("truncated TD3 lines not accepted")
	}
	if record["document_number"] != "L898902C3" {
		t.Errorf("document_number = %q", record["document_number"])
	}
	if record["surname"] != "ERIKSSON" {
		t.Errorf("surname = %q", record["surname"])
	}
}

func TestParseRejectsEmptyRecord(t *testing.T) {
	// All-filler lines slice into a record with no document number and
	// no given name; that is noise, not a match.
	filler := strings.Repeat("<", 44)
	if _, _, ok := Parse([]string{filler, filler}); ok {
		t.Fatal("all-filler lines accepted")
	}
}

func TestParseSurroundingNoise(t *testing.T) {
	// Plausible-length noise lines before the real MRZ must not block it.
	noise := strings.Repeat("<", 30)
	record, _, ok := Parse([]string{noise, td3Line1, td3Line2})
	if !ok {
		t.Fatal("MRZ after noise line not found")
	}
	if record["mrz_type"] != "TD3" {
		t.Errorf("mrz_type = %q", record["mrz_type"])
	}
}

func TestParseNothing(t *testing.T) {
	if _, _, ok := Parse(nil); ok {
		t.Fatal("empty input accepted")
	}
	if _, _, ok := Parse([]string{td3Line1}); ok {
		t.Fatal("single MRZ line accepted without its pair")
	}
}

func TestParseInvalidDateAndSex(t *testing.T) {
	// Corrupt the date and sex fields; the record still parses because
	// acceptance keys on document number and given name.
	l2 := td3Line2[:13] + "74O812" + td3Line2[19:20] + "X" + td3Line2[21:]
	record, _, ok := Parse([]string{td3Line1, l2})
	if !ok {
		t.Fatal("record with bad date rejected")
	}
	if record["birth_date"] != "" {
		t.Errorf("non-numeric birth date not dropped: %q", record["birth_date"])
	}
	if record["sex"] != "" {
		t.Errorf("invalid sex marker not dropped: %q", record["sex"])
	}
}
