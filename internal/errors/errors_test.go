package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeDatasetNotFound, "Not Found", "", "/api/datasets/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeDatasetNotFound, body["type"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"], "standard members win over extensions")
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail", "empty detail is omitted")
}

func TestAPIErrorConstructors(t *testing.T) {
	err := InvalidParameter("to", fmt.Errorf("parsing time"))
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "invalid to parameter", err.Error())
	assert.Equal(t, ValidationError{Field: "to", Message: "parsing time"}, err.Details)

	nf := DatasetNotFound("final_dataset.csv")
	assert.Equal(t, http.StatusNotFound, nf.StatusCode)
	assert.Equal(t, "DATASET_NOT_FOUND", nf.ErrorCode)

	fsErr := FileSystemError("listing", fmt.Errorf("denied"))
	assert.Equal(t, "File system error during listing", fsErr.Message)

	multi := NewValidationErrors([]ValidationError{{Field: "from"}, {Field: "to"}})
	assert.Len(t, multi.Details, 2)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := NewParsingError("dataset is not a valid table", cause).WithContext("dataset", "clean_cpi.csv")

	assert.Equal(t, "[PARSING] dataset is not a valid table: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "clean_cpi.csv", err.Context["dataset"])

	var target *AppError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", NewNotFoundError("dataset x")), &target))
	assert.Equal(t, ErrTypeNotFound, target.Type)
	assert.Equal(t, "[NOT_FOUND] dataset x not found", target.Error())

	assert.Equal(t, ErrTypeConfig, NewConfigError("bad", nil).Type)
	assert.Equal(t, ErrTypeValidation, NewAppValidationError("bad").Type)
}
