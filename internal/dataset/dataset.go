// Package dataset loads the center list the map renders.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/jengzang/dialysis-locator-go/internal/models"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor zstd-compressed JSON.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

const zstdExt = ".zst"

// Load reads centers from path. Files ending in .zst are decompressed first.
func Load(path string) ([]models.Center, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return Decode(f)
	case zstdExt:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer dec.Close()
		return Decode(dec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Decode parses a JSON array of centers. Entries without an ID are skipped.
func Decode(r io.Reader) ([]models.Center, error) {
	var centers []models.Center
	if err := json.NewDecoder(r).Decode(&centers); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	out := centers[:0]
	for _, c := range centers {
		if c.ID == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Compress writes src (plain JSON) to dst as zstd. The input is validated first.
func Compress(src, dst string) (int, error) {
	raw, err := os.ReadFile(src)
	if err != nil {
		return 0, fmt.Errorf("read dataset: %w", err)
	}
	centers, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return 0, err
	}
	defer enc.Close()

	if err := os.WriteFile(dst, enc.EncodeAll(raw, nil), 0o644); err != nil {
		return 0, fmt.Errorf("write dataset: %w", err)
	}
	return len(centers), nil
}
