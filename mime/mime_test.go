package mime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMultipart(t *testing.T) {
	require.True(t, IsMultipart(FormData))
	require.True(t, IsMultipart("Multipart/Mixed; boundary=abc"))
	require.True(t, IsMultipart("multipart/related ; boundary=abc"))
	require.False(t, IsMultipart(FormUrlencoded))
	require.False(t, IsMultipart("multipart"))
	require.False(t, IsMultipart(""))
}
