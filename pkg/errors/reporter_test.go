package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []error
}

func (r *recorder) Report(err error) {
	r.got = append(r.got, err)
}

func TestWrapAndReport(t *testing.T) {
	t.Setenv(debugMode, "")
	rec := &recorder{}
	saved := reporters
	reporters = nil
	defer func() { reporters = saved }()
	Register(rec)

	cause := errors.New("boom")
	err := WrapAndReport(cause, "enqueue relay action")
	assert.EqualError(t, err, "enqueue relay action: boom")
	assert.ErrorIs(t, err, cause)
	assert.Len(t, rec.got, 1)

	assert.NoError(t, WrapAndReport(nil, "nothing"))
	assert.Len(t, rec.got, 1)

	t.Setenv(debugMode, "1")
	Report(cause)
	assert.Len(t, rec.got, 1)
}

func TestEmptyDSNSkipsSentry(t *testing.T) {
	assert.NoError(t, NewSentryReporter("", "test"))
}
