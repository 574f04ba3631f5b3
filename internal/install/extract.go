package install

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// extractArchive unpacks artifact (already verified at l.ArtifactPath)
// into l.StageDir(). No third-party archive library appears anywhere in
// the retrieved corpus (only an indirect, compression-only
// github.com/klauspost/compress pulled in transitively by other deps), so
// this is one of the few places the standard library is used directly:
// archive/zip and archive/tar+compress/gzip cover the two formats §3
// names ("zip", "tar.gz"/"tgz"/"tar").
func extractArchive(l Layout, artifact types.Artifact) error {
	src := l.ArtifactPath(artifact)
	dst := l.StageDir()
	if err := os.RemoveAll(dst); err != nil {
		return coreerr.InvalidModelFormat("clearing stage dir: " + err.Error())
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return coreerr.InvalidModelFormat("creating stage dir: " + err.Error())
	}

	switch artifact.Format {
	case "zip":
		return extractZip(src, dst)
	case "tar.gz", "tgz":
		return extractTarGz(src, dst)
	case "tar":
		f, err := os.Open(src)
		if err != nil {
			return coreerr.InvalidModelFormat(err.Error())
		}
		defer f.Close()
		return extractTarReader(tar.NewReader(f), dst)
	default:
		return coreerr.InvalidModelFormat("unsupported archive format: " + artifact.Format)
	}
}

func extractZip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	defer r.Close()
	for _, f := range r.File {
		if err := extractZipEntry(f, dst); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, dst string) error {
	target, err := safeJoin(dst, f.Name)
	if err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	rc, err := f.Open()
	if err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	defer out.Close()
	if _, err := io.Copy(out, rc); err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	return nil
}

func extractTarGz(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return coreerr.InvalidModelFormat(err.Error())
	}
	defer gz.Close()
	return extractTarReader(tar.NewReader(gz), dst)
}

func extractTarReader(tr *tar.Reader, dst string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return coreerr.InvalidModelFormat(err.Error())
		}
		target, err := safeJoin(dst, hdr.Name)
		if err != nil {
			return coreerr.InvalidModelFormat(err.Error())
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return coreerr.InvalidModelFormat(err.Error())
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return coreerr.InvalidModelFormat(err.Error())
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return coreerr.InvalidModelFormat(err.Error())
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return coreerr.InvalidModelFormat(err.Error())
			}
			out.Close()
		}
	}
}

// safeJoin joins dst with an archive-relative name, rejecting entries that
// would escape dst via ".." (zip-slip).
func safeJoin(dst, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", coreerr.InvalidModelFormat("archive entry escapes stage dir: " + name)
	}
	return filepath.Join(dst, cleaned), nil
}

// promoteStage atomically replaces the version directory's live contents
// with the verified stage contents, one file at a time by rename — the
// stage dir and version dir already share the same filesystem, so each
// rename is atomic (§4.1: "only after every contained artifact re-verifies
// does .stage/ atomically replace (rename-over) the real directory").
func promoteStage(l Layout) error {
	entries, err := os.ReadDir(l.StageDir())
	if err != nil {
		return err
	}
	for _, e := range entries {
		src := filepath.Join(l.StageDir(), e.Name())
		dst := filepath.Join(l.VersionDir(), e.Name())
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}
	return os.RemoveAll(l.StageDir())
}
