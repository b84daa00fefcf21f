package preview

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"rovefs/internal/fserr"
	"rovefs/internal/fsx"
)

const (
	defaultByteCap = 1 << 20
	sniffLen       = 1024
	maxDirEntries  = 200
	maxArchiveList = 200
	maxBinarySample = 4096
)

// Build renders one preview synchronously. It never panics; anything it
// cannot handle becomes an Unsupported or Error result.
func Build(req Request) Result {
	res := Result{Path: req.Path, Tab: req.Tab, Gen: req.Gen}

	info, err := os.Stat(req.Path)
	if err != nil {
		if _, lerr := os.Lstat(req.Path); lerr == nil {
			res.Kind = KindUnsupported
			res.Title = "broken symlink"
			return res
		}
		res.Kind = KindError
		res.Err = fserr.Classify("preview", req.Path, err)
		return res
	}

	switch {
	case info.IsDir():
		return buildDir(req, res)
	case !info.Mode().IsRegular():
		res.Kind = KindUnsupported
		res.Title = specialName(info.Mode())
		return res
	}

	name := strings.ToLower(filepath.Base(req.Path))
	switch {
	case strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown"):
		return buildMarkdown(req, res)
	case strings.HasSuffix(name, ".zip"):
		return buildZip(req, res)
	case strings.HasSuffix(name, ".tar"), strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return buildTar(req, res)
	}

	data, truncated, err := readCapped(req.Path, req.ByteCap)
	if err != nil {
		res.Kind = KindError
		res.Err = err
		return res
	}
	res.Truncated = truncated
	if isBinary(data) {
		return buildBinary(data, res)
	}
	return buildSource(string(data), req, res)
}

// readCapped reads at most cap bytes plus one probe byte; the probe only
// detects that more data exists. A multi-gigabyte file therefore costs a
// bounded read, never a full load.
func readCapped(path string, byteCap int64) ([]byte, bool, error) {
	if byteCap <= 0 {
		byteCap = defaultByteCap
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fserr.Classify("preview", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, byteCap+1))
	if err != nil {
		return nil, false, fserr.Classify("preview", path, err)
	}
	if int64(len(data)) > byteCap {
		return data[:byteCap], true, nil
	}
	return data, false, nil
}

// isBinary sniffs the leading bytes: a NUL is decisive, otherwise a high
// share of control characters.
func isBinary(data []byte) bool {
	n := len(data)
	if n == 0 {
		return false
	}
	if n > sniffLen {
		n = sniffLen
	}
	ctrl := 0
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			ctrl++
		}
	}
	return ctrl*10 > n
}

func buildText(src string, res Result) Result {
	res.Kind = KindText
	res.Lines = splitLines(src)
	return res
}

func buildBinary(data []byte, res Result) Result {
	if len(data) > maxBinarySample {
		data = data[:maxBinarySample]
		res.Truncated = true
	}
	res.Kind = KindBinary
	res.Lines = hexDump(data)
	return res
}

func hexDump(data []byte) []string {
	lines := make([]string, 0, (len(data)+15)/16)
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]
		var hexCol, asciiCol strings.Builder
		for i, b := range row {
			if i == 8 {
				hexCol.WriteByte(' ')
			}
			fmt.Fprintf(&hexCol, "%02x ", b)
			if b >= 0x20 && b < 0x7f {
				asciiCol.WriteByte(b)
			} else {
				asciiCol.WriteByte('.')
			}
		}
		lines = append(lines, fmt.Sprintf("%08x  %-49s %s", off, hexCol.String(), asciiCol.String()))
	}
	return lines
}

func buildDir(req Request, res Result) Result {
	entries, err := fsx.ReadDir(req.Path, fsx.ListOptions{ShowHidden: true})
	if err != nil {
		res.Kind = KindError
		res.Err = err
		return res
	}
	res.Kind = KindDirectory
	res.Title = fmt.Sprintf("directory, %d entries", len(entries))
	n := len(entries)
	if n > maxDirEntries {
		n = maxDirEntries
		res.Truncated = true
	}
	lines := make([]string, 0, n)
	for _, e := range entries[:n] {
		lines = append(lines, fmt.Sprintf("%c %-30s %10s", e.Kind.Char(), e.Name, e.FormatSize()))
	}
	res.Lines = lines
	return res
}

func buildZip(req Request, res Result) Result {
	r, err := zip.OpenReader(req.Path)
	if err != nil {
		res.Kind = KindError
		res.Err = fserr.Classify("preview", req.Path, err)
		return res
	}
	defer r.Close()
	res.Kind = KindArchive
	res.Title = fmt.Sprintf("zip, %d entries", len(r.File))
	for i, f := range r.File {
		if i >= maxArchiveList {
			res.Truncated = true
			break
		}
		res.Lines = append(res.Lines, fmt.Sprintf("%10s  %s", humanize.IBytes(f.UncompressedSize64), f.Name))
	}
	return res
}

func buildTar(req Request, res Result) Result {
	f, err := os.Open(req.Path)
	if err != nil {
		res.Kind = KindError
		res.Err = fserr.Classify("preview", req.Path, err)
		return res
	}
	defer f.Close()

	var r io.Reader = f
	if !strings.HasSuffix(strings.ToLower(req.Path), ".tar") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			res.Kind = KindError
			res.Err = fserr.Classify("preview", req.Path, err)
			return res
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	res.Kind = KindArchive
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if count >= maxArchiveList {
			res.Truncated = true
			break
		}
		res.Lines = append(res.Lines, fmt.Sprintf("%10s  %s", humanize.IBytes(uint64(hdr.Size)), hdr.Name))
		count++
	}
	res.Title = fmt.Sprintf("tar, %d entries listed", count)
	return res
}

func specialName(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSocket != 0:
		return "socket"
	case mode&fs.ModeNamedPipe != 0:
		return "fifo"
	case mode&fs.ModeCharDevice != 0:
		return "char device"
	case mode&fs.ModeDevice != 0:
		return "block device"
	}
	return "special file"
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
