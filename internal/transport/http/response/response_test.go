package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportdesk/internal/domain"
)

func TestOKSetsCountForSlices(t *testing.T) {
	r := OK([]int{1, 2, 3})
	require.NotNil(t, r.Count)
	assert.Equal(t, 3, *r.Count)
	assert.True(t, r.IsSuccess())

	b, err := json.Marshal(OK(map[string]int{"id": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":1},"errorMessage":null,"errorCode":null}`, string(b))
}

func TestFromError(t *testing.T) {
	status, r := FromError(domain.Wrap(domain.ErrUserNotFound, errors.New("sql detail")))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, domain.CodeUserNotFound, *r.ErrorCode)
	assert.Equal(t, "user not found", *r.ErrorMessage)

	status, r = FromError(errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, domain.CodeInternalServerError, *r.ErrorCode)
	assert.Equal(t, "internal server error", *r.ErrorMessage)
	assert.Nil(t, r.Data)
}
