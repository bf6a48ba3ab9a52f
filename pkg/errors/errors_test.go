package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/civicdata/metasync/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestAPIError(t *testing.T) {
	t.Run("with envelope", func(t *testing.T) {
		err := pkgerrors.NewAPIError("catalog", "PATCH", "https://catalog.example/rest/prod/persons/x", 400, &pkgerrors.Envelope{
			Message: "update rejected",
			Violations: []pkgerrors.Violation{
				{Message: "givenName must not be empty"},
				{Message: "familyName must not be empty"},
			},
			Errors: []string{"constraint check failed"},
		})
		assert.Contains(t, err.Error(), "catalog")
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "update rejected")
		assert.Contains(t, err.Error(), "givenName must not be empty; familyName must not be empty")
		assert.Contains(t, err.Error(), "constraint check failed")
		assert.Equal(t, []string{"givenName must not be empty", "familyName must not be empty"}, err.Violations())
	})

	t.Run("without envelope", func(t *testing.T) {
		err := pkgerrors.NewAPIError("directory", "GET", "https://directory.example/api/people/9", 502, nil)
		assert.Contains(t, err.Error(), "status 502")
		assert.Nil(t, err.Violations())
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.True(t, errors.Is(pkgerrors.NewAPIError("catalog", "GET", "u", 404, nil), pkgerrors.ErrNotFound))
		assert.True(t, errors.Is(pkgerrors.NewAPIError("catalog", "GET", "u", 410, nil), pkgerrors.ErrNotFound))
		assert.True(t, errors.Is(pkgerrors.NewAPIError("catalog", "GET", "u", 429, nil), pkgerrors.ErrRateLimited))
		assert.True(t, errors.Is(pkgerrors.NewAPIError("catalog", "GET", "u", 503, nil), pkgerrors.ErrUpstreamUnavailable))
		assert.False(t, errors.Is(pkgerrors.NewAPIError("catalog", "GET", "u", 400, nil), pkgerrors.ErrNotFound))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Field: "uuid", Message: "not a valid UUID"}
		assert.Equal(t, "validation failed for field uuid: not a valid UUID", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestResourceError(t *testing.T) {
	base := errors.New("boom")
	err := pkgerrors.NewResourceError("update", "person", "3e9a", base)
	assert.Equal(t, "failed to update person 3e9a: boom", err.Error())
	assert.Equal(t, base, errors.Unwrap(err))
}

func TestCheckError(t *testing.T) {
	base := errors.New("query api unreachable")
	err := pkgerrors.NewCheckError("post-assignment", base)
	assert.Contains(t, err.Error(), "post-assignment")
	assert.True(t, errors.Is(err, base))
}

func TestWrappers(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapIO("read", "/tmp/x", nil))
	assert.Nil(t, pkgerrors.WrapResource("create", "user", "", nil))
	assert.Nil(t, pkgerrors.WrapValidation("field", nil))
	assert.Nil(t, pkgerrors.WrapParse("csv", "mapping", nil))

	err := pkgerrors.WrapIO("write", "/tmp/report.json", errors.New("disk full"))
	var ioErr *pkgerrors.IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "/tmp/report.json", ioErr.Path)
}

func TestEnvelopeDetail(t *testing.T) {
	var nilEnv *pkgerrors.Envelope
	assert.Equal(t, "", nilEnv.Detail())
	assert.Equal(t, "", (&pkgerrors.Envelope{}).Detail())
	assert.Equal(t, "nope", (&pkgerrors.Envelope{Message: "nope"}).Detail())
}
