package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"disklabels/internal/volumes"
)

const compressionNone = "none"

// exportEntryName is the file name used inside zip exports.
const exportEntryName = "volumes.json"

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// getCompressionExtension returns the file extension for a given compression algorithm
func getCompressionExtension(compressionAlgorithm string) (string, error) {
	switch compressionAlgorithm {
	case compressionNone:
		return "", nil
	case "gzip":
		return ".gz", nil
	case "zlib":
		return ".zlib", nil
	case "bzip2":
		return ".bz2", nil
	case "snappy":
		return ".snappy", nil
	case "s2":
		return ".s2", nil
	case "zstd":
		return ".zst", nil
	case "zip":
		return ".zip", nil
	default:
		return "", errors.Errorf("unsupported compression algorithm: %s", compressionAlgorithm)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// zipEntryCloser closes the archive once its single entry is written.
type zipEntryCloser struct {
	io.Writer
	archive *zip.Writer
}

func (z zipEntryCloser) Close() error { return z.archive.Close() }

// createCompressionWriter wraps output; closing the result flushes the
// compressed stream but leaves output open.
func createCompressionWriter(algorithm string, output io.Writer) (io.WriteCloser, error) {
	switch algorithm {
	case compressionNone:
		return nopWriteCloser{output}, nil
	case "gzip":
		return gzip.NewWriter(output), nil
	case "zlib":
		return zlib.NewWriter(output), nil
	case "bzip2":
		return bzip2.NewWriter(output, &bzip2.WriterConfig{})
	case "snappy":
		return snappy.NewBufferedWriter(output), nil
	case "s2":
		return s2.NewWriter(output), nil
	case "zstd":
		return zstd.NewWriter(output)
	case "zip":
		archive := zip.NewWriter(output)
		entry, err := archive.Create(exportEntryName)
		if err != nil {
			_ = archive.Close()
			return nil, errors.Wrap(err, "failed to create zip entry")
		}
		return zipEntryCloser{Writer: entry, archive: archive}, nil
	default:
		return nil, errors.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}

// exportInventory writes vols as JSON into outputfile plus the algorithm's
// extension and returns the final path.
func exportInventory(out io.Writer, outputfile, algorithm string, vols []*volumes.Volume) (string, error) {
	extension, err := getCompressionExtension(algorithm)
	if err != nil {
		return "", err
	}
	outputfile += extension

	file, err := os.Create(outputfile)
	if err != nil {
		return "", errors.Wrap(err, "failed to create output file")
	}
	defer func() {
		_ = file.Close()
	}()

	cw := &countingWriter{w: file}
	compressed, err := createCompressionWriter(algorithm, cw)
	if err != nil {
		return "", errors.Wrap(err, "failed to create compression writer")
	}

	raw := &countingWriter{w: compressed}
	if err := (jsonRenderer{}).Render(raw, vols); err != nil {
		_ = compressed.Close()
		return "", err
	}
	if err := compressed.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finish compressed stream")
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close output file")
	}

	ratio := "N/A"
	if cw.count > 0 {
		ratio = fmt.Sprintf("%.2f:1", float64(raw.count)/float64(cw.count))
	}
	_, _ = fmt.Fprintf(out, "Written: %s (%d volumes, %s uncompressed) Compression ratio: %s\n",
		outputfile, len(vols), humanize.Bytes(uint64(raw.count)), ratio)
	return outputfile, nil
}
