package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestAlignFromTo(t *testing.T) {
    from := time.Date(2024, 10, 10, 10, 7, 33, 0, time.UTC)
    to := time.Date(2024, 10, 10, 14, 52, 1, 0, time.UTC)

    gf, gt := AlignFromTo(from, to, "5m")
    if gf.Minute() != 5 || gt.Minute() != 55 {
        t.Fatalf("unexpected 5m alignment %v %v", gf, gt)
    }

    gf, gt = AlignFromTo(from, to, "1d")
    if gf.Hour() != 0 {
        t.Fatalf("unexpected 1d from alignment %v", gf)
    }
    if want := time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC); !gt.Equal(want) {
        t.Fatalf("unexpected 1d to alignment %v", gt)
    }
}

func TestAlignFromToKeepsIntraDayAnchor(t *testing.T) {
    // a daily candle stamped at market close must stay inside its own range
    anchor := time.Date(2025, 5, 1, 21, 0, 0, 0, time.UTC)
    _, gt := AlignFromTo(anchor.AddDate(0, 0, -30), anchor, "1d")
    if gt.Before(anchor) {
        t.Fatalf("to %v lands before the anchor %v", gt, anchor)
    }

    // an already aligned bound is left untouched
    aligned := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
    _, gt = AlignFromTo(aligned.AddDate(0, 0, -30), aligned, "1d")
    if !gt.Equal(aligned) {
        t.Fatalf("aligned to moved to %v", gt)
    }
}