package indexing

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/conclave-ai/conclave/internal/core"
)

const hashBufferSize = 8 * 1024

// HashFile returns the lowercase hex SHA-256 digest of path, streamed over
// 8 KiB buffers so large files don't require loading whole into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", core.ErrFileNotFound(path)
		}
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
