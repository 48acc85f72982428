package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePriority(t *testing.T) {
	cases := []struct {
		in   string
		want Priority
	}{
		{"low", PriorityLow},
		{"HIGH", PriorityHigh},
		{" Medium ", PriorityMedium},
		{"", PriorityMedium},
		{"critical", PriorityMedium},
		{"??", PriorityMedium},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePriority(tc.in), "input %q", tc.in)
	}
}

func TestCandidateNormalize(t *testing.T) {
	c := Candidate{Title: "  ", Message: "back door", Priority: "HIGH"}.Normalize()
	assert.Equal(t, DefaultTitle, c.Title)
	assert.Equal(t, "back door", c.Message)
	assert.Equal(t, "high", c.Priority)

	c = Candidate{Title: "Intruder"}.Normalize()
	assert.Equal(t, "Intruder", c.Title)
	assert.Equal(t, "medium", c.Priority)
}
