package providers

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenUnix(t *testing.T) {
	dir, err := ioutil.TempDir("", "providers-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "test.sock")

	sock, err := ListenUnix(path)
	require.NoError(t, err)
	// Leave a stale socket behind.
	sock.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, sock.Close())

	sock, err = Listen("unix", path)
	require.NoError(t, err)
	require.NoError(t, sock.Close())

	regular := filepath.Join(dir, "regular")
	require.NoError(t, ioutil.WriteFile(regular, nil, 0600))
	_, err = ListenUnix(regular)
	assert.Error(t, err)
}
