package mosquitto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQoSValid(t *testing.T) {
	assert.True(t, AtMostOnce.Valid())
	assert.True(t, AtLeastOnce.Valid())
	assert.True(t, ExactlyOnce.Valid())
	assert.False(t, QoS(3).Valid())
}

func TestQoSString(t *testing.T) {
	assert.Equal(t, "at most once", AtMostOnce.String())
	assert.Equal(t, "at least once", AtLeastOnce.String())
	assert.Equal(t, "exactly once", ExactlyOnce.String())
	assert.Equal(t, "qos(9)", QoS(9).String())
}

func TestCheckNoNUL(t *testing.T) {
	assert.NoError(t, checkNoNUL("topic", "a/b"))
	assert.NoError(t, checkNoNUL("topic", ""))

	err := checkNoNUL("topic", "a\x00b")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "topic")
}

func TestCString(t *testing.T) {
	assert.Equal(t, []byte{'a', '/', 'b', 0}, cstring("a/b"))
	assert.Equal(t, []byte{0}, cstring(""))
}

func TestAccessLevelString(t *testing.T) {
	assert.Equal(t, "read", AccessRead.String())
	assert.Equal(t, "write", AccessWrite.String())
	assert.Equal(t, "subscribe", AccessSubscribe.String())
	assert.Equal(t, "unsubscribe", AccessUnsubscribe.String())
	assert.Equal(t, "none", AccessNone.String())
	assert.Equal(t, "access(3)", AccessLevel(3).String())
}
