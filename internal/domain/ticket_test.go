package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]TicketStatus{
		"New":         TicketStatusNew,
		"new":         TicketStatusNew,
		"In Progress": TicketStatusInProgress,
		"inprogress":  TicketStatusInProgress,
		"IN_PROGRESS": TicketStatusInProgress,
		"in-progress": TicketStatusInProgress,
		"RESOLVED":    TicketStatusResolved,
		"closed":      TicketStatusClosed,
	}
	for input, want := range cases {
		got, ok := ParseStatus(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "   ", "Bogus", "Open"} {
		_, ok := ParseStatus(input)
		assert.False(t, ok, input)
		assert.False(t, IsValidStatus(input), input)
	}
}

func TestSameStatus(t *testing.T) {
	assert.True(t, SameStatus("In Progress", "inprogress"))
	assert.False(t, SameStatus("New", "Closed"))
}

func TestSameID(t *testing.T) {
	assert.True(t, SameID("ABC-123", "abc-123"))
	assert.True(t, SameID(" abc ", "ABC"))
	assert.False(t, SameID("abc", "abd"))
	assert.Equal(t, "abc", NormalizeID("  ABC "))
}
