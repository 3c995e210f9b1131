package main

import (
	"compress/flate"
	"io"
	"os"
	"strings"

	"github.com/PROSIC/libprosic/encoding/bgzf"
)

// openInput opens path, or falls back to stdin when path is empty, per §6:
// "Each subcommand accepts candidates via --candidates or STDIN".
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// createOutput opens path for writing, or falls back to stdout when path is
// empty, per §6: "outputs BCF to --output or STDOUT". A .bgz or .gz suffix
// asks for bgzipped output, the same block-gzip framing BAM/BCF use, per
// encoding/bgzf's own doc comment.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".bgz") || strings.HasSuffix(path, ".gz") {
		bw, err := bgzf.NewWriter(f, flate.DefaultCompression)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &bgzfFileWriter{bw: bw, f: f}, nil
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// bgzfFileWriter closes the bgzf block framing (flushing the terminator)
// before closing the underlying file.
type bgzfFileWriter struct {
	bw *bgzf.Writer
	f  *os.File
}

func (w *bgzfFileWriter) Write(p []byte) (int, error) { return w.bw.Write(p) }

func (w *bgzfFileWriter) Close() error {
	if err := w.bw.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
