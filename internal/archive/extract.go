package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTarGzip
	FormatTarZstd
	FormatTar
)

func (format Format) String() string {
	switch format {
	case FormatZip:
		return "zip"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarZstd:
		return "tar.zst"
	case FormatTar:
		return "tar"
	default:
		return "unknown"
	}
}

// DetectFormat picks the reader from the file name.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"), strings.HasSuffix(lower, ".mrpack"):
		return FormatZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".gz"):
		return FormatTarGzip
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"), strings.HasSuffix(lower, ".zst"):
		return FormatTarZstd
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar
	default:
		return FormatUnknown
	}
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: %s", e.Path)
}

// UnsafePathError is returned for entries that would land outside the extraction root.
type UnsafePathError struct {
	Entry string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("archive entry escapes destination: %s", e.Entry)
}

type ExtractOptions struct {
	// Skip lists entry name prefixes to leave out, e.g. "META-INF/".
	Skip []string
}

func (options ExtractOptions) skipped(name string) bool {
	for _, prefix := range options.Skip {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// SafeJoin resolves an archive entry name under root, rejecting absolute names and
// traversal outside root.
func SafeJoin(root string, name string) (string, error) {
	normalized := strings.ReplaceAll(name, "\\", "/")
	if normalized == "" || path.IsAbs(normalized) || filepath.IsAbs(normalized) || filepath.VolumeName(normalized) != "" {
		return "", &UnsafePathError{Entry: name}
	}
	cleaned := path.Clean(normalized)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &UnsafePathError{Entry: name}
	}
	target := filepath.Join(root, filepath.FromSlash(cleaned))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &UnsafePathError{Entry: name}
	}
	return target, nil
}

// Extract unpacks archivePath into destDir and returns the written file paths.
func Extract(ctx context.Context, fs afero.Fs, archivePath string, destDir string, options ExtractOptions) ([]string, error) {
	format := DetectFormat(archivePath)
	ctx, span := perf.StartSpan(ctx, "io.archive.extract",
		perf.WithAttributes(
			attribute.String("path", archivePath),
			attribute.String("destination", destDir),
			attribute.String("format", format.String()),
		),
	)
	defer span.End()

	var written []string
	var err error
	switch format {
	case FormatZip:
		written, err = extractZip(ctx, fs, archivePath, destDir, options)
	case FormatTarGzip, FormatTarZstd, FormatTar:
		written, err = extractTar(ctx, fs, archivePath, destDir, format, options)
	default:
		err = &UnsupportedFormatError{Path: archivePath}
	}

	span.SetAttributes(attribute.Int("files", len(written)), attribute.Bool("success", err == nil))
	return written, err
}

func openZip(fs afero.Fs, archivePath string) (*zip.Reader, afero.File, error) {
	file, err := fs.Open(archivePath)
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	reader, err := zip.NewReader(file, info.Size())
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return reader, file, nil
}

func extractZip(ctx context.Context, fs afero.Fs, archivePath string, destDir string, options ExtractOptions) ([]string, error) {
	reader, file, err := openZip(fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	written := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if options.skipped(entry.Name) {
			continue
		}
		target, err := SafeJoin(destDir, entry.Name)
		if err != nil {
			return written, err
		}
		if entry.FileInfo().IsDir() {
			if err := noLinkedParents(fs, destDir, target); err != nil {
				return written, err
			}
			if err := fs.MkdirAll(target, 0755); err != nil {
				return written, err
			}
			continue
		}
		if err := writeZipEntry(fs, destDir, entry, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func writeZipEntry(fs afero.Fs, destDir string, entry *zip.File, target string) error {
	source, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()
	return writeEntry(fs, destDir, target, source, entry.Mode())
}

func extractTar(ctx context.Context, fs afero.Fs, archivePath string, destDir string, format Format, options ExtractOptions) ([]string, error) {
	file, err := fs.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var stream io.Reader = file
	switch format {
	case FormatTarGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gz.Close() }()
		stream = gz
	case FormatTarZstd:
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		stream = zr
	}

	reader := tar.NewReader(stream)
	written := make([]string, 0)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		if options.skipped(header.Name) {
			continue
		}
		target, err := SafeJoin(destDir, header.Name)
		if err != nil {
			return written, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := noLinkedParents(fs, destDir, target); err != nil {
				return written, err
			}
			if err := fs.MkdirAll(target, 0755); err != nil {
				return written, err
			}
		case tar.TypeReg:
			if err := writeEntry(fs, destDir, target, reader, header.FileInfo().Mode()); err != nil {
				return written, err
			}
			written = append(written, target)
		case tar.TypeSymlink:
			if err := writeSymlink(fs, destDir, target, header.Linkname); err != nil {
				return written, err
			}
		default:
			// hard links, devices and fifos never appear in runtime archives
		}
	}
}

// writeSymlink only links inside destDir and silently drops links on filesystems that
// cannot represent them. A link may not walk through links created by earlier entries.
func writeSymlink(fs afero.Fs, destDir string, target string, linkname string) error {
	if filepath.IsAbs(linkname) {
		return &UnsafePathError{Entry: linkname}
	}
	if err := noLinkedParents(fs, destDir, target); err != nil {
		return err
	}
	if err := walkLink(fs, destDir, filepath.Dir(target), linkname); err != nil {
		return err
	}
	linker, ok := fs.(afero.Linker)
	if !ok {
		return nil
	}
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	_ = fs.Remove(target)
	return linker.SymlinkIfPossible(linkname, target)
}

// walkLink follows linkname from dir one component at a time. Every step has to stay under
// destDir and must not pass through an existing symlink.
func walkLink(fs afero.Fs, destDir string, dir string, linkname string) error {
	current := dir
	for _, part := range strings.Split(filepath.ToSlash(linkname), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
		default:
			current = filepath.Join(current, part)
			if isSymlink(fs, current) {
				return &UnsafePathError{Entry: linkname}
			}
		}
		if !within(destDir, current) {
			return &UnsafePathError{Entry: linkname}
		}
	}
	return nil
}

// noLinkedParents rejects target when any directory between destDir and target is a symlink.
func noLinkedParents(fs afero.Fs, destDir string, target string) error {
	rel, err := filepath.Rel(destDir, filepath.Dir(target))
	if err != nil {
		return &UnsafePathError{Entry: target}
	}
	if rel == "." {
		return nil
	}
	current := destDir
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		if isSymlink(fs, current) {
			return &UnsafePathError{Entry: target}
		}
	}
	return nil
}

func within(root string, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isSymlink(fs afero.Fs, name string) bool {
	lstater, ok := fs.(afero.Lstater)
	if !ok {
		return false
	}
	info, _, err := lstater.LstatIfPossible(name)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func writeEntry(fs afero.Fs, destDir string, target string, source io.Reader, mode os.FileMode) error {
	if err := noLinkedParents(fs, destDir, target); err != nil {
		return err
	}
	if isSymlink(fs, target) {
		return &UnsafePathError{Entry: target}
	}
	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, source) // #nosec G110 -- archives come from checksummed vendor sources.
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}
