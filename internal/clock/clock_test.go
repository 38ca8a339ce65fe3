package clock

import (
	"testing"
	"time"
)

func TestDateTimeRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	orig := time.Date(2026, 3, 10, 18, 45, 9, 0, loc)
	s := FormatDateTime(orig)
	if s != "2026-03-10 18:45:09" {
		t.Fatalf("format: got %q", s)
	}
	back, err := ParseDateTime(s, loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Equal(orig) {
		t.Fatalf("roundtrip: %v != %v", back, orig)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	if _, err := ParseDateTime("10/03/2026 18:45", time.UTC); err == nil {
		t.Fatal("slashed datetime must not parse")
	}
	if _, err := ParseDate("2026-3-1", time.UTC); err == nil {
		t.Fatal("unpadded date must not parse")
	}
}

func TestMidnight(t *testing.T) {
	in := time.Date(2026, 3, 10, 23, 59, 59, 123, time.UTC)
	got := Midnight(in)
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v", got)
	}
	if got.Location() != in.Location() {
		t.Fatal("midnight must keep the location")
	}
}
