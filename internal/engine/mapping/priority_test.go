package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"low", PriorityLow},
		{"LOW", PriorityLow},
		{"  baixa ", PriorityLow},
		{"Baixo", PriorityLow},
		{"medium", PriorityMedium},
		{"media", PriorityMedium},
		{"Média", PriorityMedium},
		{"MÉDIO", PriorityMedium},
		{"high", PriorityHigh},
		{"Alta", PriorityHigh},
		{"alto\n", PriorityHigh},
		{"", PriorityMedium},
		{"   ", PriorityMedium},
		{"urgent", PriorityMedium},
		{"3", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePriority(tt.in))
		})
	}
}

func TestNormalizePriority_TotalAndIdempotent(t *testing.T) {
	inputs := []string{"", "low", "Alta", "média", "garbage", "  HIGH  ", "médio", "baixo", "\t", "ALTO"}
	allowed := map[string]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true}

	for _, in := range inputs {
		once := NormalizePriority(in)
		assert.True(t, allowed[once], "unexpected priority %q for %q", once, in)
		assert.Equal(t, once, NormalizePriority(once), "not idempotent for %q", in)
	}
}
