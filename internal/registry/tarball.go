package registry

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wsmigrate/wsmigrate/internal/migerr"
)

// ExtractFileFromTarball streams the entry named entryPath (relative
// to the tarball's "package/" root, npm's packing convention) out of
// the gzipped tarball at tarballPath, writing it to outPath.
//
// No library in the retrieval pack models "pull one named file out of
// a generic .tgz" — the only tarball-aware dependency available
// (github.com/google/go-containerregistry/pkg/v1/tarball) is
// OCI-image-specific and has no notion of an arbitrary named entry, so
// this is built directly on archive/tar and compress/gzip.
func ExtractFileFromTarball(tarballPath, entryPath, outPath string) (string, error) {
	f, err := os.Open(tarballPath)
	if err != nil {
		return "", fmt.Errorf("%w: opening tarball: %v", migerr.ErrMigrationsFileMissing, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: decompressing tarball: %v", migerr.ErrMigrationsFileMissing, err)
	}
	defer func() { _ = gz.Close() }()

	want := strings.TrimPrefix(filepath.ToSlash(entryPath), "./")
	wantWithPrefix := "package/" + want

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return "", fmt.Errorf("%w: %s not found in %s", migerr.ErrMigrationsFileMissing, entryPath, tarballPath)
		}
		if err != nil {
			return "", fmt.Errorf("%w: reading tarball entries: %v", migerr.ErrMigrationsFileMissing, err)
		}

		name := filepath.ToSlash(hdr.Name)
		if name != want && name != wantWithPrefix {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return "", fmt.Errorf("%w: %v", migerr.ErrMigrationsFileMissing, err)
		}
		out, err := os.Create(outPath)
		if err != nil {
			return "", fmt.Errorf("%w: %v", migerr.ErrMigrationsFileMissing, err)
		}
		defer func() { _ = out.Close() }()

		if _, err := io.Copy(out, tr); err != nil {
			return "", fmt.Errorf("%w: %v", migerr.ErrMigrationsFileMissing, err)
		}
		return outPath, nil
	}
}
