package quiz

import (
	"reflect"
	"testing"
	"time"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		revealed map[int]bool
		want     string
	}{
		{
			name:   "nothing revealed",
			answer: "cat",
			want:   "_ _ _",
		},
		{
			name:     "partially revealed",
			answer:   "cat",
			revealed: map[int]bool{0: true},
			want:     "c_ _",
		},
		{
			name:     "fully revealed",
			answer:   "cat",
			revealed: map[int]bool{0: true, 1: true, 2: true},
			want:     "cat",
		},
		{
			name:     "whitespace never masked",
			answer:   "a b",
			revealed: map[int]bool{2: true},
			want:     "_   b",
		},
		{
			name:     "multibyte runes indexed by rune",
			answer:   "héllo",
			revealed: map[int]bool{1: true},
			want:     "_ é_ _ _",
		},
		{
			name:   "empty answer",
			answer: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mask(tt.answer, tt.revealed)
			if got != tt.want {
				t.Fatalf("Mask(%q) = %q, want %q", tt.answer, got, tt.want)
			}
		})
	}
}

func TestRevealablePositions(t *testing.T) {
	got := RevealablePositions("a b c")
	want := []int{0, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RevealablePositions = %v, want %v", got, want)
	}

	if got := RevealablePositions(""); got != nil {
		t.Fatalf("RevealablePositions(\"\") = %v, want nil", got)
	}
}

func TestPointsForElapsed(t *testing.T) {
	s := DefaultSchedule()

	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 5},
		{7 * time.Second, 5},
		{8 * time.Second, 4},
		{13 * time.Second, 4},
		{14 * time.Second, 3},
		{20 * time.Second, 2},
		{25 * time.Second, 1},
		{29 * time.Second, 1},
	}
	for _, tt := range tests {
		if got := s.PointsForElapsed(tt.elapsed); got != tt.want {
			t.Errorf("PointsForElapsed(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}
