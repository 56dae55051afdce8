package weberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Invalid("bad signature"), http.StatusBadRequest},
		{Conflict("username taken"), http.StatusBadRequest},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Encoding(errors.New("bad base64")), http.StatusUnauthorized},
		{Store(errors.New("connection refused")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.HTTPStatus(), c.err.Kind.String())
	}
}

func TestStoreHidesCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	err := Store(cause)
	assert.Equal(t, "storage failure", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestFrom(t *testing.T) {
	we := Unauthorized("nope")
	require.Same(t, we, From(we))
	require.Same(t, we, From(fmt.Errorf("handler: %w", we)))

	plain := errors.New("boom")
	got := From(plain)
	assert.Equal(t, KindStore, got.Kind)
	assert.ErrorIs(t, got, plain)
}
