package extract_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/pacparse/internal/extract"
	"github.com/ossyrian/pacparse/internal/lzs"
	"github.com/ossyrian/pacparse/internal/tim2"
	"github.com/ossyrian/pacparse/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// compress wraps data as a .lzs entry made only of literals: an outer size
// preamble, the stream's own preamble, then a 0xFF flag per 8 bytes.
func compress(data []byte) []byte {
	out := make([]byte, 8)
	for i := 0; i < len(data); i += 8 {
		end := min(i+8, len(data))
		out = append(out, 0xFF)
		out = append(out, data[i:end]...)
	}
	return out
}

type nestedEntry struct {
	name string
	data []byte
}

// flatTable lays out an entry table followed by the entry data.
func flatTable(t *testing.T, entries ...nestedEntry) []byte {
	t.Helper()

	tableSize := 2
	for i := range entries {
		if i == 0 {
			tableSize += 2
		} else {
			tableSize += 4
		}
		tableSize += 12 + lzs.NameSize
	}

	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, uint16(len(entries))))

	offset := uint32(tableSize)
	for i, e := range entries {
		if i == 0 {
			buf.Write(make([]byte, 2))
		} else {
			buf.Write(make([]byte, 4))
		}
		require.NoError(t, binary.Write(buf, binary.LittleEndian, []uint32{offset, uint32(len(e.data)), uint32(i)}))

		name := make([]byte, lzs.NameSize)
		copy(name, e.name)
		buf.Write(name)

		offset += uint32(len(e.data))
	}
	for _, e := range entries {
		buf.Write(e.data)
	}
	return buf.Bytes()
}

// tinyImage builds a 2x2 true color image.
func tinyImage(t *testing.T) []byte {
	t.Helper()

	return imageOf(t, 2, 2, []byte{
		0, 255, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	})
}

// tileImage builds a 16x8 true color image, one full swizzle tile.
func tileImage(t *testing.T) []byte {
	t.Helper()

	pixels := make([]byte, 16*8*4)
	for i := range pixels {
		pixels[i] = byte(i * 3)
	}
	return imageOf(t, 16, 8, pixels)
}

// imageOf wraps RGBA8 pixels in a single-frame container.
func imageOf(t *testing.T, width, height uint16, pixels []byte) []byte {
	t.Helper()

	frame := struct {
		TotalSize      uint32
		ClutSize       uint32
		ImageSize      uint32
		HeaderSize     uint16
		ClutColorCount uint16
		PictureFormat  uint8
		MipmapCount    uint8
		ClutFormat     uint8
		BppFormat      uint8
		Width          uint16
		Height         uint16
		GsTex0         [8]byte
		GsTex1         [8]byte
		GsRegs         uint32
		GsTexClut      uint32
	}{
		TotalSize:   uint32(tim2.FrameHeaderSize + len(pixels)),
		ImageSize:   uint32(len(pixels)),
		HeaderSize:  tim2.FrameHeaderSize,
		MipmapCount: 1,
		BppFormat:   3,
		Width:       width,
		Height:      height,
	}

	buf := new(bytes.Buffer)
	buf.Write(tim2.Magic[:])
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []uint16{4, 1}))
	buf.Write(make([]byte, 8))
	require.NoError(t, binary.Write(buf, binary.LittleEndian, frame))
	buf.Write(pixels)
	return buf.Bytes()
}

// archive lays files out back to back in a payload and returns the tree.
type archive struct {
	payload bytes.Buffer
}

func (a *archive) file(name string, data []byte) *types.Node {
	n := types.NewFile(name, uint64(a.payload.Len()), uint64(len(data)))
	a.payload.Write(data)
	return n
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want extract.Kind
	}{
		{"a.lzs", extract.KindCompressedArchive},
		{"A.LZS", extract.KindCompressedArchive},
		{"dir/b.tm2", extract.KindImage},
		{"b.Tm2", extract.KindImage},
		{"c.bin", extract.KindRaw},
		{"noext", extract.KindRaw},
		{"lzs", extract.KindRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract.Classify(tt.name))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Raw", extract.KindRaw.String())
	assert.Equal(t, "CompressedArchive", extract.KindCompressedArchive.String())
	assert.Equal(t, "Image", extract.KindImage.String())
	assert.Equal(t, "Unknown", extract.Kind(9).String())
}

func TestPaths(t *testing.T) {
	base, err := extract.BasePath(filepath.Join("out", "a.lzs"))
	require.NoError(t, err)
	assert.Equal(t, "out", base)

	_, err = extract.BasePath("")
	assert.ErrorIs(t, err, extract.ErrNoBasePath)

	_, err = extract.BasePath(string(filepath.Separator))
	assert.ErrorIs(t, err, extract.ErrNoBasePath)

	assert.Equal(t, filepath.Join("out", "a"), extract.RemoveExt(filepath.Join("out", "a.lzs")))
	assert.Equal(t, "noext", extract.RemoveExt("noext"))
	assert.Equal(t, "a.tm2", extract.ReplaceExt("a.lzs", ".tm2"))
	assert.Equal(t, "a.png", extract.ReplaceExt("a", ".png"))
}

func TestUnwrap(t *testing.T) {
	t.Run("passes plain data through", func(t *testing.T) {
		in := []byte("0123456789abcdefghij")
		out, err := extract.Unwrap(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("short buffer is never unwrapped", func(t *testing.T) {
		in := []byte{0, 0, 0, 0, 0xFF, 'T', 'I', 'M', '2'}
		out, err := extract.Unwrap(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("magic at five decodes from four", func(t *testing.T) {
		// Decoding starts at byte 8: flag '2' (0x32) selects a
		// reference, a literal, then two more references.
		in := []byte{
			0, 0, 0, 0,
			0xFF, 'T', 'I', 'M', '2',
			0xEE, 0xF0,
			'z',
			0xEE, 0xF0, 0xEE, 0xF0,
		}
		out, err := extract.Unwrap(in)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0, 0, 'z', 0, 0, 0, 0, 0, 0}, out)
	})
}

func TestDecompress(t *testing.T) {
	out, err := extract.Decompress(compress([]byte("hello world")))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), out)

	_, err = extract.Decompress([]byte{1, 2})
	assert.True(t, extract.IsRecoverable(err))
}

func TestExtract_Hello(t *testing.T) {
	var a archive
	root := types.NewDirectory("data",
		types.NewDirectory("dir",
			a.file("x.lzs", compress([]byte("hello"))),
		),
	)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, []byte("hello"), readFile(t, filepath.Join(out, "dir", "x.lzs")))

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.Directories)
	assert.Equal(t, int64(1), stats.Files)
	assert.Equal(t, int64(1), stats.Written)
	assert.Zero(t, stats.Warnings)
}

func TestExtract_RawAndImage(t *testing.T) {
	img := tinyImage(t)

	var a archive
	root := types.NewDirectory("data",
		a.file("raw.bin", []byte{1, 2, 3}),
		a.file("pic.tm2", img),
		a.file("packed.lzs", compress(img)),
	)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithPNG(true, 2))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, []byte{1, 2, 3}, readFile(t, filepath.Join(out, "raw.bin")))
	assert.Equal(t, img, readFile(t, filepath.Join(out, "pic.tm2")))
	assert.Equal(t, img, readFile(t, filepath.Join(out, "packed.tm2")))
	assert.NoFileExists(t, filepath.Join(out, "packed.lzs"))
	assert.FileExists(t, filepath.Join(out, "pic.png"))
	assert.FileExists(t, filepath.Join(out, "packed.png"))
	assert.Equal(t, int64(2), e.Stats().PNGs)
}

func TestExtract_NestedArchive(t *testing.T) {
	img := tinyImage(t)
	blob := flatTable(t,
		nestedEntry{"first.bin", []byte("one")},
		nestedEntry{"second", img},
		nestedEntry{"third.lzs", compress([]byte("deep"))},
	)

	var a archive
	root := types.NewDirectory("data",
		a.file("bundle.lzs", compress(blob)),
	)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	dir := filepath.Join(out, "bundle")
	assert.Equal(t, []byte("one"), readFile(t, filepath.Join(dir, "first.bin")))
	assert.Equal(t, img, readFile(t, filepath.Join(dir, "second.tm2")))
	assert.Equal(t, []byte("deep"), readFile(t, filepath.Join(dir, "third.lzs")))
	assert.NoFileExists(t, filepath.Join(out, "bundle.lzs"))
}

func TestExtract_RecursiveKeepsImages(t *testing.T) {
	img := tileImage(t)
	require.Greater(t, len(img), 128)

	var a archive
	root := types.NewDirectory("data",
		a.file("pic.lzs", compress(img)),
		a.file("other.bin", []byte("x")),
	)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true), extract.WithPNG(true, 1))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, img, readFile(t, filepath.Join(out, "pic.tm2")))
	assert.FileExists(t, filepath.Join(out, "pic.png"))

	stats := e.Stats()
	assert.Equal(t, int64(2), stats.Written)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Warnings)
}

func TestExtract_SingleNestedEntryWritesBeside(t *testing.T) {
	blob := flatTable(t, nestedEntry{"only.bin", []byte("solo")})

	var a archive
	root := types.NewDirectory("data",
		types.NewDirectory("d", a.file("wrap.lzs", compress(blob))),
	)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, []byte("solo"), readFile(t, filepath.Join(out, "d", "only.bin")))
	assert.NoDirExists(t, filepath.Join(out, "d", "wrap"))
}

func TestExtract_NotRecursiveWritesBlob(t *testing.T) {
	blob := flatTable(t, nestedEntry{"a", []byte("x")}, nestedEntry{"b", []byte("y")})

	var a archive
	root := types.NewDirectory("data", a.file("bundle.lzs", compress(blob)))

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, blob, readFile(t, filepath.Join(out, "bundle.lzs")))
}

func TestExtract_RecursiveNonTableWrittenWhole(t *testing.T) {
	var a archive
	root := types.NewDirectory("data", a.file("plain.lzs", compress([]byte{5})))

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, []byte{5}, readFile(t, filepath.Join(out, "plain.lzs")))
}

func TestExtract_BadEntriesAreSkipped(t *testing.T) {
	// a flag byte of zero demands a reference that is cut short
	truncated := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0x00, 0x01}

	badNum := flatTable(t, nestedEntry{"a", []byte("x")}, nestedEntry{"b", []byte("y")})
	binary.LittleEndian.PutUint32(badNum[2+2+8:], 7)

	var a archive
	root := types.NewDirectory("data",
		a.file("broken.lzs", truncated),
		a.file("badnum.lzs", compress(badNum)),
		a.file("tiny.lzs", []byte{1}),
		a.file("ok.bin", []byte("fine")),
	)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.NoFileExists(t, filepath.Join(out, "broken.lzs"))
	assert.NoFileExists(t, filepath.Join(out, "badnum.lzs"))
	assert.NoFileExists(t, filepath.Join(out, "tiny.lzs"))
	assert.Equal(t, []byte("fine"), readFile(t, filepath.Join(out, "ok.bin")))

	stats := e.Stats()
	assert.Equal(t, int64(3), stats.Skipped)
	assert.Equal(t, int64(3), stats.Warnings)
	assert.Equal(t, int64(1), stats.Written)
}

func TestExtract_MaxDepth(t *testing.T) {
	inner := flatTable(t, nestedEntry{"a", []byte("1")}, nestedEntry{"b", []byte("2")})
	innerPacked := compress(inner)
	outer := flatTable(t, nestedEntry{"x", []byte("x")}, nestedEntry{"inner.lzs", innerPacked})

	var a archive
	root := types.NewDirectory("data", a.file("outer.lzs", compress(outer)))

	t.Run("expands within the limit", func(t *testing.T) {
		out := t.TempDir()
		e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true))
		require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

		assert.Equal(t, []byte("2"), readFile(t, filepath.Join(out, "outer", "inner", "b")))
	})

	t.Run("writes raw past the limit", func(t *testing.T) {
		out := t.TempDir()
		e := extract.New(extract.WithLogger(quietLogger()), extract.WithRecursive(true), extract.WithMaxDepth(1))
		require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

		assert.Equal(t, innerPacked, readFile(t, filepath.Join(out, "outer", "inner.lzs")))
		assert.Equal(t, int64(1), e.Stats().Warnings)
	})
}

func TestExtract_Verify(t *testing.T) {
	var a archive
	good := a.file("good.bin", []byte("good"))
	good.Checksum = sha256.Sum256([]byte("good"))
	bad := a.file("bad.bin", []byte("bad"))
	bad.Checksum = sha256.Sum256([]byte("other"))
	unset := a.file("unset.bin", []byte("unset"))

	root := types.NewDirectory("data", good, bad, unset)

	out := t.TempDir()
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithVerify(true))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.Equal(t, int64(1), e.Stats().Warnings)
	assert.Equal(t, int64(3), e.Stats().Written)
}

func TestExtract_DryRun(t *testing.T) {
	var a archive
	root := types.NewDirectory("data", types.NewDirectory("d", a.file("f.bin", []byte("f"))))

	out := filepath.Join(t.TempDir(), "out")
	e := extract.New(extract.WithLogger(quietLogger()), extract.WithDryRun(true))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.NoDirExists(t, out)
	assert.Equal(t, int64(1), e.Stats().Written)
}

func TestExtract_PayloadTooShortIsFatal(t *testing.T) {
	root := types.NewDirectory("data", types.NewFile("f.bin", 0, 10))

	e := extract.New(extract.WithLogger(quietLogger()))
	err := e.Extract(context.Background(), root, bytes.NewReader([]byte{1, 2}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "f.bin")
}

func TestExtract_UnsafeNameSkipped(t *testing.T) {
	var a archive
	root := types.NewDirectory("data",
		a.file("../escape.bin", []byte("no")),
		a.file("kept.bin", []byte("yes")),
	)

	parent := t.TempDir()
	out := filepath.Join(parent, "out")
	e := extract.New(extract.WithLogger(quietLogger()))
	require.NoError(t, e.Extract(context.Background(), root, bytes.NewReader(a.payload.Bytes()), out))

	assert.NoFileExists(t, filepath.Join(parent, "escape.bin"))
	assert.Equal(t, []byte("yes"), readFile(t, filepath.Join(out, "kept.bin")))
}

func TestExtract_Canceled(t *testing.T) {
	var a archive
	root := types.NewDirectory("data", a.file("f.bin", []byte("f")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := extract.New(extract.WithLogger(quietLogger()))
	err := e.Extract(ctx, root, bytes.NewReader(a.payload.Bytes()), t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile_Parallel(t *testing.T) {
	var a archive
	root := types.NewDirectory("data",
		types.NewDirectory("one", a.file("a.bin", []byte("a")), a.file("b.lzs", compress([]byte("bee")))),
		types.NewDirectory("two", types.NewDirectory("deep", a.file("c.bin", []byte("c")))),
		a.file("top.bin", []byte("top")),
	)

	payload := filepath.Join(t.TempDir(), "PAC1.BIN")
	require.NoError(t, os.WriteFile(payload, a.payload.Bytes(), 0o644))

	for _, jobs := range []int{1, 4} {
		out := t.TempDir()
		e := extract.New(extract.WithLogger(quietLogger()), extract.WithJobs(jobs))
		require.NoError(t, e.ExtractFile(context.Background(), root, payload, out))

		assert.Equal(t, []byte("a"), readFile(t, filepath.Join(out, "one", "a.bin")))
		assert.Equal(t, []byte("bee"), readFile(t, filepath.Join(out, "one", "b.lzs")))
		assert.Equal(t, []byte("c"), readFile(t, filepath.Join(out, "two", "deep", "c.bin")))
		assert.Equal(t, []byte("top"), readFile(t, filepath.Join(out, "top.bin")))

		stats := e.Stats()
		assert.Equal(t, int64(4), stats.Files)
		assert.Equal(t, int64(3), stats.Directories)
	}
}

func TestExtractFile_MissingPayload(t *testing.T) {
	root := types.NewDirectory("data")
	e := extract.New(extract.WithLogger(quietLogger()))
	err := e.ExtractFile(context.Background(), root, filepath.Join(t.TempDir(), "nope"), t.TempDir())
	assert.Error(t, err)
}

func TestProcessLZS(t *testing.T) {
	blob := flatTable(t, nestedEntry{"a.txt", []byte("A")}, nestedEntry{"b.txt", []byte("B")})

	dir := t.TempDir()
	in := filepath.Join(dir, "pack.lzs")
	require.NoError(t, os.WriteFile(in, compress(blob), 0o644))

	out := filepath.Join(dir, "out", "pack.lzs")
	e := extract.New(extract.WithLogger(quietLogger()))
	require.NoError(t, e.ProcessLZS(context.Background(), in, out))

	assert.Equal(t, []byte("A"), readFile(t, filepath.Join(dir, "out", "pack", "a.txt")))
	assert.Equal(t, []byte("B"), readFile(t, filepath.Join(dir, "out", "pack", "b.txt")))
}

func TestProcessLZS_InPlace(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "text.lzs")
	packed := compress([]byte("plain"))
	require.NoError(t, os.WriteFile(in, packed, 0o644))

	img := tileImage(t)
	pic := filepath.Join(dir, "pic.lzs")
	require.NoError(t, os.WriteFile(pic, compress(img), 0o644))

	e := extract.New(extract.WithLogger(quietLogger()))
	require.NoError(t, e.ProcessLZS(context.Background(), in, in))
	require.NoError(t, e.ProcessLZS(context.Background(), pic, pic))

	assert.Equal(t, packed, readFile(t, in))
	assert.Equal(t, []byte("plain"), readFile(t, filepath.Join(dir, "text.bin")))
	assert.Equal(t, img, readFile(t, filepath.Join(dir, "pic.tm2")))
}
