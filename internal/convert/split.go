package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/thywilljoshua/pdftools/internal/ghostscript"
)

// lockFileName is created in the target directory when LockTargetDir is set.
const lockFileName = ".pdftools.lock"

const lockRetryDelay = 100 * time.Millisecond

// Splitter turns a multi-page PDF into one file per page.
type Splitter struct {
	Engine   SplitEngine
	Measurer Measurer
	// Parser defaults to ghostscript.DefaultSplitOutputParser.
	Parser OutputParser
	Logger *logrus.Logger
	// LockTargetDir serializes splits into the same directory across
	// processes with an advisory file lock.
	LockTargetDir bool
}

// SplitToPath splits doc into targetDir and returns the page files that exist
// afterwards, in page order. See Split.
func (s *Splitter) SplitToPath(ctx context.Context, doc Document, targetDir, fileName string) ([]string, error) {
	res, err := s.Split(ctx, doc, targetDir, fileName)
	return res.Paths, err
}

// Split writes each page of doc into targetDir, named after fileName or, when
// empty, the document itself (see OutputTemplate). A single-page document is
// copied. Otherwise the engine's output is parsed for the number of pages it
// wrote and only those page files found on disk are returned; reported pages
// that are missing are skipped, listed in Missing and logged. When the engine
// reports no pages at all the result is empty and the error wraps
// ErrNoPagesReported. Files written before a failure are left in place.
func (s *Splitter) Split(ctx context.Context, doc Document, targetDir, fileName string) (SplitResult, error) {
	logger := loggerOrDiscard(s.Logger).WithFields(logrus.Fields{
		"source":    doc.Path(),
		"targetDir": targetDir,
	})

	if err := checkSource(doc.Path()); err != nil {
		return SplitResult{}, err
	}
	pageCount, err := s.Measurer.PageCount(doc.Path())
	if err != nil {
		return SplitResult{}, fmt.Errorf("failed to count pages: %w", err)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return SplitResult{}, fmt.Errorf("failed to create target directory: %w", err)
	}
	if s.LockTargetDir {
		unlock, err := lockDir(ctx, targetDir)
		if err != nil {
			return SplitResult{}, err
		}
		defer unlock()
	}

	template := OutputTemplate(targetDir, fileName, doc.BaseName(), pageCount)

	if pageCount == 1 {
		if err := copyFile(doc.Path(), template); err != nil {
			return SplitResult{}, fmt.Errorf("failed to copy single-page document: %w", err)
		}
		logger.WithField("path", template).Info("Single-page document copied")
		return SplitResult{Paths: []string{template}, Reported: 1, Copied: true}, nil
	}

	logger.WithFields(logrus.Fields{"pages": pageCount, "template": template}).Debug("Splitting document")
	output, err := s.Engine.Split(ctx, doc.Path(), template)
	if err != nil {
		return SplitResult{}, fmt.Errorf("failed to split %s: %w", doc.Path(), err)
	}

	reported := s.parser().Count(output)
	if reported == 0 {
		return SplitResult{Paths: []string{}}, fmt.Errorf("%w: %s has %d pages", ErrNoPagesReported, doc.Path(), pageCount)
	}

	res := reconcile(template, reported)
	if len(res.Missing) > 0 {
		logger.WithFields(logrus.Fields{
			"reported": reported,
			"missing":  res.Missing,
		}).Warn("Engine reported pages that are not on disk")
	}
	if reported != pageCount {
		logger.WithFields(logrus.Fields{
			"reported": reported,
			"pages":    pageCount,
		}).Warn("Engine reported a different page count than the document has")
	}
	logger.WithField("written", len(res.Paths)).Info("Document split")
	return res, nil
}

func (s *Splitter) parser() OutputParser {
	if s.Parser != nil {
		return s.Parser
	}
	return ghostscript.DefaultSplitOutputParser
}

// reconcile keeps the page files 1..reported that exist on disk.
func reconcile(template string, reported int) SplitResult {
	res := SplitResult{Paths: []string{}, Reported: reported}
	for page := 1; page <= reported; page++ {
		path := PagePath(template, page)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			res.Paths = append(res.Paths, path)
		} else {
			res.Missing = append(res.Missing, page)
		}
	}
	return res
}

func lockDir(ctx context.Context, dir string) (func(), error) {
	fileLock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire lock on %s", dir)
	}
	return func() { _ = fileLock.Unlock() }, nil
}

func copyFile(src, dst string) error {
	if same, err := samePath(src, dst); err != nil {
		return err
	} else if same {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// samePath reports whether dst already is src, so copying would truncate it.
func samePath(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	dstInfo, err := os.Stat(dst)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(srcInfo, dstInfo), nil
}
