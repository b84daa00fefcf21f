package fserr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMapsSentinels(t *testing.T) {
	var fe *Error

	err := Classify("copy", "/tmp/x", fs.ErrPermission)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindPermission, fe.Kind)
	assert.Equal(t, "/tmp/x", fe.Path)

	err = Classify("create", "/tmp/y", fs.ErrExist)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindExists, fe.Kind)

	err = Classify("read", "/tmp/z", errors.New("disk on fire"))
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindIO, fe.Kind)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify("noop", "", nil))
}

func TestClassifyKeepsExistingError(t *testing.T) {
	orig := Invalid("bad regex %q", "[")
	wrapped := Classify("filter", "", orig)
	assert.Same(t, orig, wrapped)
}

func TestKindOfWalksChain(t *testing.T) {
	inner := New("rename", "/a", KindExists, fs.ErrExist)
	outer := errors.Join(errors.New("outer"), inner)
	assert.Equal(t, KindExists, KindOf(outer))
	assert.Equal(t, KindIO, KindOf(errors.New("plain")))
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(Cancelled("transfer")))
	assert.False(t, IsCancelled(errors.New("nope")))
}

func TestCommandFailed(t *testing.T) {
	err := CommandFailed([]string{"tar", "-xf", "x.tar"}, 2, errors.New("exit status 2"))
	assert.Equal(t, KindExternalCommand, err.Kind)
	assert.Equal(t, 2, err.Exit)
	assert.Contains(t, err.Error(), "tar -xf x.tar")
}
