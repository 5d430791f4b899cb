package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateTicketRequestValidate(t *testing.T) {
	valid := CreateTicketRequest{Name: "Alice", Email: "alice@example.com", Description: "Printer is jammed again"}
	assert.Nil(t, valid.Validate())

	cases := []struct {
		name  string
		req   CreateTicketRequest
		field string
	}{
		{"blank name", CreateTicketRequest{Name: "  ", Email: valid.Email, Description: valid.Description}, "name"},
		{"long name", CreateTicketRequest{Name: strings.Repeat("a", 101), Email: valid.Email, Description: valid.Description}, "name"},
		{"missing email", CreateTicketRequest{Name: "A", Description: valid.Description}, "email"},
		{"bad email", CreateTicketRequest{Name: "A", Email: "alice@example", Description: valid.Description}, "email"},
		{"spaced email", CreateTicketRequest{Name: "A", Email: "al ice@example.com", Description: valid.Description}, "email"},
		{"long email", CreateTicketRequest{Name: "A", Email: strings.Repeat("a", 250) + "@ex.com", Description: valid.Description}, "email"},
		{"short description", CreateTicketRequest{Name: "A", Email: valid.Email, Description: "too short"}, "description"},
		{"long description", CreateTicketRequest{Name: "A", Email: valid.Email, Description: strings.Repeat("x", 5001)}, "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.req.Validate()
			assert.Contains(t, errs, tc.field)
			assert.Len(t, errs, 1)
		})
	}
}

func TestCreateTicketRequestReportsEveryField(t *testing.T) {
	errs := CreateTicketRequest{}.Validate()
	assert.Len(t, errs, 3)
}

func TestTicketListQueryNormalize(t *testing.T) {
	q := TicketListQuery{}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize)

	q = TicketListQuery{Page: -3, PageSize: 500}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.PageSize)

	q = TicketListQuery{Page: 4, PageSize: -1}
	q.Normalize()
	assert.Equal(t, 4, q.Page)
	assert.Equal(t, 1, q.PageSize)
}
