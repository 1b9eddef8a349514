package hostfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/rtg/internal/hostfs"
)

func newFS(t *testing.T) *hostfs.BlockFS {
	t.Helper()
	dev := hostfs.NewMemDevice(64, 16)
	return hostfs.NewBlockFS(dev)
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := newFS(t)
	fd, err := fs.Open("a.txt", hostfs.OWrOnly|hostfs.OCreat, 0644)
	require.NoError(t, err)

	data := make([]byte, 200) // spans multiple 64-byte blocks
	for i := range data {
		data[i] = byte(i)
	}
	n, err := fs.Write(fd, data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	require.NoError(t, fs.Close(fd))

	fd, err = fs.Open("a.txt", hostfs.ORdOnly, 0)
	require.NoError(t, err)
	defer fs.Close(fd)

	buf := make([]byte, 256)
	got := 0
	for {
		n, err := fs.Read(fd, buf[got:])
		got += n
		if err != nil {
			break
		}
	}
	assert.Equal(t, data, buf[:got])
}

func TestSeek(t *testing.T) {
	fs := newFS(t)
	fd, _ := fs.Open("b.txt", hostfs.OWrOnly|hostfs.OCreat, 0644)
	fs.Write(fd, []byte("0123456789"))
	fs.Close(fd)

	fd, _ = fs.Open("b.txt", hostfs.ORdOnly, 0)
	defer fs.Close(fd)
	pos, err := fs.Seek(fd, 5, hostfs.SeekSet)
	require.NoError(t, err)
	assert.EqualValues(t, 5, pos)

	buf := make([]byte, 5)
	n, err := fs.Read(fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "56789", string(buf[:n]))
}

func TestRemoveAndRename(t *testing.T) {
	fs := newFS(t)
	fd, _ := fs.Open("c.txt", hostfs.OWrOnly|hostfs.OCreat, 0644)
	fs.Write(fd, []byte("hi"))
	fs.Close(fd)

	require.NoError(t, fs.Rename("c.txt", "d.txt"))
	_, err := fs.Open("c.txt", hostfs.ORdOnly, 0)
	assert.ErrorIs(t, err, hostfs.ErrNotFound)

	info, err := fs.Stat("d.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Size)

	require.NoError(t, fs.Remove("d.txt"))
	assert.Empty(t, fs.List())
}

func TestOpenExclOnExistingFileFails(t *testing.T) {
	fs := newFS(t)
	fd, _ := fs.Open("e.txt", hostfs.OWrOnly|hostfs.OCreat, 0644)
	fs.Close(fd)

	_, err := fs.Open("e.txt", hostfs.OWrOnly|hostfs.OCreat|hostfs.OExcl, 0644)
	assert.ErrorIs(t, err, hostfs.ErrExists)
}

func TestTruncateDiscardsContent(t *testing.T) {
	fs := newFS(t)
	fd, _ := fs.Open("f.txt", hostfs.OWrOnly|hostfs.OCreat, 0644)
	fs.Write(fd, []byte("some long content here"))
	fs.Close(fd)

	fd, err := fs.Open("f.txt", hostfs.OWrOnly|hostfs.OTrunc, 0644)
	require.NoError(t, err)
	fs.Close(fd)

	info, err := fs.Stat("f.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Size)
}

func TestListIsSortedByName(t *testing.T) {
	fs := newFS(t)
	for _, name := range []string{"z.c", "a.c", "m.c"} {
		fd, _ := fs.Open(name, hostfs.OWrOnly|hostfs.OCreat, 0644)
		fs.Close(fd)
	}
	infos := fs.List()
	require.Len(t, infos, 3)
	assert.Equal(t, []string{"a.c", "m.c", "z.c"}, []string{infos[0].Name, infos[1].Name, infos[2].Name})
}
