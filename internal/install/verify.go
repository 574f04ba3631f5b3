package install

import (
	"crypto/sha256"
	"io"
	"os"

	"github.com/opencontainers/go-digest"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// expectedDigest parses an artifact's manifest-declared hex SHA-256 into a
// typed digest.Digest, so comparisons are digest.Digest equality rather
// than raw hex string handling throughout the pipeline. The expected
// digest is not passed through digest.Digest.Validate.
func expectedDigest(artifact types.Artifact) digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, artifact.SHA256)
}

// VerifyArtifact re-verifies an already-downloaded artifact's digest,
// used by the operator CLI's standalone "verify" subcommand (§13 A6)
// independent of a full install run.
func VerifyArtifact(path string, artifact types.Artifact) error {
	return verifyFile(path, artifact)
}

// verifyFile streams path through SHA-256 and compares against the
// manifest's expected digest. This is a genuine streaming hash over the
// file's full contents — never a size-only placeholder — per §4.1 and the
// Open Question warning against a "verify() that checks only byte length".
func verifyFile(path string, artifact types.Artifact) error {
	f, err := os.Open(path)
	if err != nil {
		return coreerr.DownloadFailed(artifact.Name, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return coreerr.DownloadFailed(artifact.Name, err)
	}
	actual := digest.NewDigest(digest.SHA256, h)
	expected := expectedDigest(artifact)
	if actual != expected {
		return coreerr.VerifyFailed(artifact.Name, expected.Encoded(), actual.Encoded())
	}
	return nil
}

// hashingReader wraps an io.Reader, accumulating a running SHA-256 digest
// as bytes are read through it — used so the download and the hash happen
// in the same pass rather than a second full read of the file.
type hashingReader struct {
	r      io.Reader
	hasher interface {
		io.Writer
		Sum([]byte) []byte
	}
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: r, hasher: sha256.New()}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.hasher.Write(p[:n])
	}
	return n, err
}

// Digest returns the running hash as a typed digest.Digest, for
// comparison against expectedDigest without raw hex handling.
func (hr *hashingReader) Digest() digest.Digest {
	return digest.NewDigestFromBytes(digest.SHA256, hr.hasher.Sum(nil))
}
