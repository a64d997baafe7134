package protocol

import "testing"

func TestFileInfoRoundTrip(t *testing.T) {
	cases := []string{
		"a.txt",
		"report-2026-07-31.csv",
		"",
	}

	for _, name := range cases {
		f := FileInfo{
			Filename:     name,
			FileSize:     1 << 20,
			TotalChunks:  TotalChunksFor(1<<20, DefaultChunkSize),
			ChunkSize:    DefaultChunkSize,
			ChecksumType: ChecksumCRC32,
			FileMode:     0644,
			Timestamp:    1785542400,
		}

		buf, err := EncodeFileInfo(f)
		if err != nil {
			t.Fatalf("EncodeFileInfo(%q): unexpected error: %v", name, err)
		}

		decoded, err := DecodeFileInfo(buf)
		if err != nil {
			t.Fatalf("DecodeFileInfo(%q): unexpected error: %v", name, err)
		}

		if decoded.Filename != f.Filename ||
			decoded.FileSize != f.FileSize ||
			decoded.TotalChunks != f.TotalChunks ||
			decoded.ChunkSize != f.ChunkSize ||
			decoded.ChecksumType != f.ChecksumType ||
			decoded.FileMode != f.FileMode ||
			decoded.Timestamp != f.Timestamp {
			t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, f)
		}
	}
}

func TestFileInfoRejectsOverlongFilename(t *testing.T) {
	f := FileInfo{Filename: string(make([]byte, MaxFilenameLen+1))}
	if _, err := EncodeFileInfo(f); err == nil {
		t.Fatal("expected error encoding an over-long filename")
	}
}

func TestFileInfoMaxLengthFilenameFillsField(t *testing.T) {
	name := make([]byte, MaxFilenameLen)
	for i := range name {
		name[i] = 'x'
	}
	f := FileInfo{Filename: string(name)}

	buf, err := EncodeFileInfo(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := DecodeFileInfo(buf); err == nil {
		t.Fatal("expected decode error: a filename filling the field leaves no room for a NUL terminator")
	}
}

func TestTotalChunksFor(t *testing.T) {
	cases := []struct {
		fileSize, want uint64
		chunkSize      uint32
	}{
		{0, 0, 1024},
		{1, 1, 1024},
		{1024, 1, 1024},
		{1025, 2, 1024},
		{DefaultChunkSize * 3, 3, DefaultChunkSize},
	}

	for _, c := range cases {
		if got := TotalChunksFor(c.fileSize, c.chunkSize); got != c.want {
			t.Errorf("TotalChunksFor(%d, %d) = %d, want %d", c.fileSize, c.chunkSize, got, c.want)
		}
	}
}

func TestChunkSizeFor(t *testing.T) {
	const chunkSize = 1024
	const fileSize = 1024*3 + 100
	total := TotalChunksFor(fileSize, chunkSize)

	if total != 4 {
		t.Fatalf("sanity check: total = %d, want 4", total)
	}

	for id := uint64(0); id < total-1; id++ {
		if got := ChunkSizeFor(id, total, fileSize, chunkSize); got != chunkSize {
			t.Errorf("ChunkSizeFor(%d, ...) = %d, want %d", id, got, chunkSize)
		}
	}

	if got := ChunkSizeFor(total-1, total, fileSize, chunkSize); got != 100 {
		t.Errorf("final chunk size = %d, want 100", got)
	}
}
