package bundler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
)

// LoadAsset reads a static asset referenced by a script's import path. If
// the file carries a .br suffix it is transparently brotli-decompressed —
// the one place this runtime carries the teacher's compression-stream
// plumbing forward, repurposed from a request/response body concern (the
// teacher's webapi compression bindings, out of scope per spec §1) to a
// Resource Table asset-loading concern owned by the Module Loader.
func LoadAsset(path string) ([]byte, error) {
	if !strings.HasSuffix(path, ".br") {
		return os.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, brotli.NewReader(f)); err != nil {
		return nil, fmt.Errorf("decompressing asset %s: %w", path, err)
	}
	return out.Bytes(), nil
}
