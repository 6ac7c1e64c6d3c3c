package components

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestBar_Filled(t *testing.T) {
	tests := []struct {
		name       string
		count, max int
		width      int
		want       int
	}{
		{"full", 5, 5, 20, 20},
		{"half", 2, 4, 20, 10},
		{"small count still visible", 1, 100, 20, 1},
		{"zero", 0, 5, 20, 0},
		{"no max", 3, 0, 20, 0},
		{"over max clamps", 9, 3, 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBar("x", 1, tt.count, tt.max, 40)
			assert.Equal(t, tt.want, b.Filled(tt.width))
		})
	}
}

func TestBar_View(t *testing.T) {
	out := ansi.Strip(NewBar("label", 8, 3, 6, 40).View())
	assert.Equal(t, 40, ansi.StringWidth(out))
	assert.Contains(t, out, "label   ")
	assert.Contains(t, out, "  3")
}
