package storage

import (
	"chat-hub/errors"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG header, enough for sniffing
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestDiskStorage_Store_And_Open(t *testing.T) {
	req := require.New(t)
	disk, err := NewDiskStorage(t.TempDir(), logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	// When storing an image whose name lies about its type
	stored, err := disk.Store(context.Background(), pngHeader, "holiday.txt", "images")
	req.NoError(err)

	// Then the type comes from the bytes
	req.Equal("image/png", stored.MimeType)
	req.Equal(int64(len(pngHeader)), stored.Size)
	req.True(strings.HasPrefix(stored.Token, "images/"))
	req.True(strings.HasSuffix(stored.Token, ".png"))

	f, err := disk.Open(stored.Token)
	req.NoError(err)
	defer f.Close()
	content, err := io.ReadAll(f)
	req.NoError(err)
	req.Equal(pngHeader, content)
}

func TestDiskStorage_Text_Has_No_Charset(t *testing.T) {
	req := require.New(t)
	disk, err := NewDiskStorage(t.TempDir(), logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	stored, err := disk.Store(context.Background(), []byte("meeting notes"), "notes.txt", "")
	req.NoError(err)
	req.Equal("text/plain", stored.MimeType)
	req.True(strings.HasPrefix(stored.Token, "files/"))
}

func TestDiskStorage_Refuses_Escaping_Tokens(t *testing.T) {
	req := require.New(t)
	disk, err := NewDiskStorage(t.TempDir(), logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	_, err = disk.Open("../../etc/passwd")
	req.ErrorIs(err, errors.ErrSecurity)

	_, err = disk.Open("images/missing.png")
	req.ErrorIs(err, errors.ErrNotFound)

	// A hostile subdir is flattened inside the root
	stored, err := disk.Store(context.Background(), []byte("x"), "x.txt", "../../outside")
	req.NoError(err)
	req.True(strings.HasPrefix(stored.Token, "outside/"))
}

func TestDiskStorage_Delete(t *testing.T) {
	req := require.New(t)
	disk, err := NewDiskStorage(t.TempDir(), logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	ctx := context.Background()
	stored, err := disk.Store(ctx, []byte("orphan"), "notes.txt", "10")
	req.NoError(err)

	req.NoError(disk.Delete(ctx, stored.Token))

	_, err = disk.Open(stored.Token)
	req.ErrorIs(err, errors.ErrNotFound)
	// Deleting twice is fine, escaping root is not
	req.NoError(disk.Delete(ctx, stored.Token))
	req.ErrorIs(disk.Delete(ctx, "../../etc/passwd"), errors.ErrSecurity)
}
