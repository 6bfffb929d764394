package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"spool/internal/logging"
	"spool/internal/services"
)

// Bundle is a materialized asset root. Extracted archives own their root
// directory and remove it on Cleanup; directory bundles are used in place
// and never touched.
type Bundle struct {
	root      string
	extracted bool
}

// Root returns the directory asset paths resolve against.
func (b *Bundle) Root() string {
	return b.root
}

// Cleanup removes an extracted bundle's temporary directory. Safe to call
// for directory bundles and more than once.
func (b *Bundle) Cleanup() {
	if b == nil || !b.extracted || b.root == "" {
		return
	}
	os.RemoveAll(b.root)
	b.root = ""
}

// Materialize prepares a bundle for asset resolution. Directories are used
// as-is; anything else is treated as a zip archive and extracted.
func Materialize(path string, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "bundle", "materialize",
			fmt.Sprintf("bundle not found: %s", path), nil)
	}
	if info.IsDir() {
		return &Bundle{root: path}, nil
	}

	extractDir, err := os.MkdirTemp("", "spool_bundle_")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "bundle", "materialize", "create extraction dir", err)
	}
	count, err := extractArchive(path, extractDir)
	if err != nil {
		os.RemoveAll(extractDir)
		return nil, err
	}
	logger.Debug("bundle extracted",
		logging.String("bundle", path),
		logging.String("extract_dir", extractDir),
		logging.Int("entries", count))
	return &Bundle{root: extractDir, extracted: true}, nil
}

// Resolve maps a bundle-relative asset path to an absolute path, requiring
// the file to exist.
func (b *Bundle) Resolve(rel string) (string, error) {
	if !filepath.IsLocal(rel) {
		return "", services.Wrap(services.ErrValidation, "bundle", "resolve",
			fmt.Sprintf("asset path escapes bundle: %s", rel), nil)
	}
	candidate := filepath.Join(b.root, filepath.FromSlash(rel))
	if _, err := os.Stat(candidate); err != nil {
		return "", services.Wrap(services.ErrNotFound, "bundle", "resolve",
			fmt.Sprintf("asset missing in bundle: %s", rel), nil)
	}
	return candidate, nil
}

// ResolveAll resolves every path in order, failing on the first missing
// asset so problems surface before any rendering starts.
func (b *Bundle) ResolveAll(rels []string) ([]string, error) {
	resolved := make([]string, 0, len(rels))
	for _, rel := range rels {
		path, err := b.Resolve(rel)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, path)
	}
	return resolved, nil
}

func extractArchive(archivePath, destDir string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "bundle", "extract", "open bundle archive", err)
	}
	defer reader.Close()

	count := 0
	for _, file := range reader.File {
		if err := extractEntry(file, destDir); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractEntry(file *zip.File, destDir string) error {
	name := filepath.FromSlash(file.Name)
	if !filepath.IsLocal(name) {
		return services.Wrap(services.ErrValidation, "bundle", "extract",
			fmt.Sprintf("archive entry escapes bundle: %s", file.Name), nil)
	}
	target := filepath.Join(destDir, name)

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return services.Wrap(services.ErrTransient, "bundle", "extract", "create directory", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "bundle", "extract", "create directory", err)
	}
	rc, err := file.Open()
	if err != nil {
		return services.Wrap(services.ErrValidation, "bundle", "extract",
			fmt.Sprintf("open archive entry: %s", file.Name), err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return services.Wrap(services.ErrTransient, "bundle", "extract", "create file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return services.Wrap(services.ErrTransient, "bundle", "extract",
			fmt.Sprintf("write archive entry: %s", file.Name), err)
	}
	return out.Close()
}
