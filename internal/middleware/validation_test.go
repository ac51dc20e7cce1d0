package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "macrocli/internal/errors"
)

type testQuery struct {
	From    string   `query:"from" validate:"omitempty,month"`
	Format  string   `query:"format" validate:"omitempty,oneof=json csv"`
	Columns []string `query:"columns" validate:"max=3,dive,column"`
}

func TestQueryValidator(t *testing.T) {
	qv := NewQueryValidator()

	tests := []struct {
		name       string
		query      testQuery
		wantFields []string
	}{
		{name: "empty query", query: testQuery{}},
		{name: "valid", query: testQuery{From: "2020-01", Format: "csv", Columns: []string{"CPI_Total", "Gas_Price"}}},
		{name: "date form accepted", query: testQuery{From: "2020-01-15"}},
		{name: "bad month", query: testQuery{From: "2020-13"}, wantFields: []string{"from"}},
		{name: "bad column", query: testQuery{Columns: []string{"CPI_Total", "1; drop"}}, wantFields: []string{"columns[1]"}},
		{name: "too many columns", query: testQuery{Columns: []string{"a", "b", "c", "d"}}, wantFields: []string{"columns"}},
		{
			name:       "several failures",
			query:      testQuery{From: "soon", Format: "xml"},
			wantFields: []string{"from", "format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := qv.ValidateStruct(tt.query)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

			details, ok := apiErr.Details.([]apierrors.ValidationError)
			require.True(t, ok)
			var fields []string
			for _, d := range details {
				fields = append(fields, d.Field)
				assert.NotEmpty(t, d.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}
