package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		prefix   string
		want     string
	}{
		{
			name:     "empty scope starts at one",
			existing: nil,
			prefix:   "X",
			want:     "X0001",
		},
		{
			name:     "fills the first gap",
			existing: []string{"X0001", "X0002", "X0004"},
			prefix:   "X",
			want:     "X0003",
		},
		{
			name:     "dense series appends",
			existing: []string{"X0001", "X0002", "X0003"},
			prefix:   "X",
			want:     "X0004",
		},
		{
			name:     "unsorted input",
			existing: []string{"X0005", "X0001", "X0003"},
			prefix:   "X",
			want:     "X0002",
		},
		{
			name:     "reuses a freed number before growing",
			existing: []string{"pay0001", "pay0004", "pay0005"},
			prefix:   "pay",
			want:     "pay0002",
		},
		{
			name:     "ignores foreign prefixes and malformed ids",
			existing: []string{"DOC0001", "pay0001", "PRESabc", "PRES0002"},
			prefix:   "PRES",
			want:     "PRES0001",
		},
		{
			name:     "duplicate ids count once",
			existing: []string{"tc0001", "tc0001", "tc0002"},
			prefix:   "tc",
			want:     "tc0003",
		},
		{
			name:     "long-prefix style patient ids",
			existing: []string{"patientId0001", "patientId0002"},
			prefix:   "patientId",
			want:     "patientId0003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.existing, tt.prefix))
		})
	}
}

func TestFormatWidensPastPad(t *testing.T) {
	assert.Equal(t, "X10000", Format("X", 10000))
	assert.Equal(t, "X0042", Format("X", 42))
}

func TestParse(t *testing.T) {
	n, ok := Parse("PRES0012", "PRES")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = Parse("PRES", "PRES")
	assert.False(t, ok)

	_, ok = Parse("DOC0001", "PRES")
	assert.False(t, ok)

	_, ok = Parse("PRES00x1", "PRES")
	assert.False(t, ok)
}
