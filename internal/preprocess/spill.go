package preprocess

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

func spillToDisk(dir string, idx uint64, calls *Calls) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(calls); err != nil {
		return "", errors.Wrap(err, "preprocess: encoding spilled bundle")
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", errors.Wrap(err, "preprocess: creating zstd encoder")
	}
	compressed := enc.EncodeAll(buf.Bytes(), nil)
	enc.Close()

	path := filepath.Join(dir, fmt.Sprintf("libprosic-bundle-%d.zst", idx))
	if err := os.WriteFile(path, compressed, 0o600); err != nil {
		return "", errors.Wrapf(err, "preprocess: writing spill file %s", path)
	}
	return path, nil
}

func readSpill(path string) (*Calls, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "preprocess: reading spill file %s", path)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess: creating zstd decoder")
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess: zstd decode of spilled bundle")
	}
	var calls Calls
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&calls); err != nil {
		return nil, errors.Wrap(err, "preprocess: decoding spilled bundle")
	}
	_ = os.Remove(path)
	return &calls, nil
}
