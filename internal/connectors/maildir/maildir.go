// Package maildir reads messages from a local directory of .eml files.
package maildir

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
	"github.com/custodia-labs/mailqa/internal/normalisers/eml"
)

// Ensure Source implements the interface.
var _ driven.MessageSource = (*Source)(nil)

// Extension is the file extension of message files.
const Extension = ".eml"

// Source scans a directory tree for .eml files. Hidden files and
// directories are skipped.
type Source struct {
	dir string
}

// New creates a maildir source rooted at dir.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Name identifies the source.
func (s *Source) Name() string {
	return string(domain.SourceMaildir)
}

// Dir returns the scanned directory.
func (s *Source) Dir() string {
	return s.dir
}

type found struct {
	path string
	msg  domain.MailMessage
}

// FetchDay returns the messages whose Date header falls on day (UTC),
// oldest first. Files that cannot be parsed are skipped with a warning.
func (s *Source) FetchDay(ctx context.Context, day time.Time) ([]string, error) {
	msgs, err := s.scan(ctx, func(m domain.MailMessage) bool { return m.OnDay(day) })
	if err != nil {
		return nil, err
	}
	items := make([]string, len(msgs))
	for i, m := range msgs {
		items[i] = m.Flatten()
	}
	logger.Debug("maildir: %d messages on %s in %s", len(items), day.UTC().Format("2006-01-02"), s.dir)
	return items, nil
}

// FetchAll returns every parseable message, oldest first.
func (s *Source) FetchAll(ctx context.Context) ([]string, error) {
	msgs, err := s.scan(ctx, func(domain.MailMessage) bool { return true })
	if err != nil {
		return nil, err
	}
	items := make([]string, len(msgs))
	for i, m := range msgs {
		items[i] = m.Flatten()
	}
	return items, nil
}

func (s *Source) scan(ctx context.Context, keep func(domain.MailMessage) bool) ([]domain.MailMessage, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: maildir %s: %w", domain.ErrSourceUnavailable, s.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: maildir %s is not a directory", domain.ErrInvalidInput, s.dir)
	}

	var matches []found
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != s.dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}

		msg, err := parseFile(path)
		if err != nil {
			logger.Warn("maildir: skipping %s: %v", path, err)
			return nil
		}
		if keep(msg) {
			matches = append(matches, found{path: path, msg: msg})
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].msg.Received, matches[j].msg.Received
		if !a.Equal(b) {
			return a.Before(b)
		}
		return matches[i].path < matches[j].path
	})

	msgs := make([]domain.MailMessage, len(matches))
	for i, m := range matches {
		msgs[i] = m.msg
	}
	return msgs, nil
}

func parseFile(path string) (domain.MailMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.MailMessage{}, err
	}
	defer f.Close()
	return eml.Parse(f)
}
