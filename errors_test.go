package rack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	var errs Errors
	assert.Nil(t, errs.Ret())
	errs = errs.Add(nil)
	assert.Nil(t, errs.Ret())

	errTest := errors.New("test")
	errs = errs.Add(ErrClosed).Add(errTest)
	err := errs.Ret()
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, errTest)
	assert.NotErrorIs(t, err, ErrStaleHandle)
	assert.Equal(t, "engine closed,test", err.Error())
}

func TestRecovered(t *testing.T) {
	errTest := errors.New("test")
	assert.ErrorIs(t, recovered(errTest), ErrModulePanicked)
	assert.ErrorIs(t, recovered(errTest), errTest)
	assert.EqualError(t, recovered("boom"), "module panicked: boom")
}
