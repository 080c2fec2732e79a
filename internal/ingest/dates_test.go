package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	fallback := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		cell Cell
		want string
	}{
		{"compact text", Text("20260130"), "2026-01-30"},
		{"compact number", Number(20260130), "2026-01-30"},
		{"dashed", Text("2026-01-05"), "2026-01-05"},
		{"dotted korean style", Text("2026. 1. 5."), "2026-01-05"},
		{"korean words", Text("2026년 3월 7일"), "2026-03-07"},
		{"datetime", Text("2026-01-05 13:45:00"), "2026-01-05"},
		{"english", Text("Jan 5, 2026"), "2026-01-05"},
		{"serial 45000", Number(45000), "2023-03-15"},
		{"serial 46052", Number(46052), "2026-01-30"},
		{"serial with time fraction", Number(46052.75), "2026-01-30"},
		{"serial below range", Number(1234), "2026-02-14"},
		{"out of range year", Text("1999-01-01"), "2026-02-14"},
		{"garbage", Text("not a date"), "2026-02-14"},
		{"empty", Empty(), "2026-02-14"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeDate(tc.cell, fallback))
		})
	}
}
