package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendKeepsCaptureOrder(t *testing.T) {
	s := New()
	s.Append("a")
	s.Append("b")
	s.Append("c")
	require.Equal(t, []string{"a", "b", "c"}, s.Images())
	require.Equal(t, 3, s.Len())
}

func TestImagesReturnsCopy(t *testing.T) {
	s := New()
	s.Append("a")
	snapshot := s.Images()
	s.Reset()
	require.Equal(t, []string{"a"}, snapshot)
	require.Empty(t, s.Images())
}

func TestEnterMultiCapture(t *testing.T) {
	s := New()
	require.Equal(t, Idle, s.Mode())
	require.True(t, s.EnterMultiCapture())
	require.False(t, s.EnterMultiCapture())
	require.Equal(t, Accumulating, s.Mode())
	require.Equal(t, "accumulating", s.Mode().String())
}

func TestResetFromAnyState(t *testing.T) {
	for _, multi := range []bool{false, true} {
		s := New()
		if multi {
			s.EnterMultiCapture()
		}
		s.Append("a")
		s.Reset()
		require.Zero(t, s.Len())
		require.False(t, s.MultiCapture())
		require.Equal(t, Idle, s.Mode())
	}
}
