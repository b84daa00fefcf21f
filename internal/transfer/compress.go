package transfer

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"rovefs/internal/fserr"
)

// ArchiveName is the base name compress jobs write; collisions get the
// usual " (n)" treatment.
const ArchiveName = "archive.tar.gz"

// compressJob writes every pair into one tar.gz in the shared
// destination directory. Per-pair failures skip that source and the
// archive keeps growing; cancellation between sources removes the
// partial archive.
func (w *Worker) compressJob(j *Job, em *emitter) (errs []FileError, cancelled bool) {
	if len(j.Pairs) == 0 {
		return nil, false
	}
	dstDir := j.Pairs[0].DstDir
	dst := filepath.Join(dstDir, CollisionFreeName(dstDir, ArchiveName))

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		cerr := fserr.Classify("compress", dst, err)
		for _, p := range j.Pairs {
			errs = append(errs, FileError{Path: p.Src, Err: cerr})
		}
		return errs, false
	}
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, pair := range j.Pairs {
		if w.cancel.Load() {
			cancelled = true
			break
		}
		em.current(filepath.Base(pair.Src))
		if err := w.appendTree(tw, pair.Src, em); err != nil {
			fe := FileError{Path: pair.Src, Err: err}
			errs = append(errs, fe)
			em.error(fe)
			w.log.WithField("job", j.ID).WithError(err).Warn("archive append failed")
			continue
		}
		em.fileDone()
	}

	closeErr := tw.Close()
	if err := gz.Close(); closeErr == nil {
		closeErr = err
	}
	if err := out.Close(); closeErr == nil {
		closeErr = err
	}
	if cancelled {
		os.Remove(dst)
		return errs, true
	}
	if closeErr != nil {
		errs = append(errs, FileError{Path: dst, Err: fserr.Classify("compress", dst, closeErr)})
	}
	return errs, false
}

// appendTree adds src (a file or a whole directory) to the archive,
// entry names relative to src's parent.
func (w *Worker) appendTree(tw *tar.Writer, src string, em *emitter) error {
	base := filepath.Dir(src)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fserr.Classify("compress", path, err)
		}
		info, err := d.Info()
		if err != nil {
			return fserr.Classify("compress", path, err)
		}
		link := ""
		if d.Type()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return fserr.Classify("compress", path, err)
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fserr.Classify("compress", path, err)
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return fserr.Classify("compress", path, err)
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fserr.Classify("compress", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return fserr.Classify("compress", path, err)
		}
		defer f.Close()
		pw := &progressWriter{w: tw, onWrite: em.addBytes}
		if _, err := io.Copy(pw, f); err != nil {
			return fserr.Classify("compress", path, err)
		}
		return nil
	})
}
