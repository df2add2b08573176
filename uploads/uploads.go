// Package uploads stores report attachments on local disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"verivault/config"
	"verivault/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooManyFiles    = errors.New("too many files")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// DefaultAllowed 为附件白名单（按内容嗅探，不信任客户端 Content-Type）
var DefaultAllowed = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/heic",
	"application/pdf",
	"text/plain",
	"text/csv",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"video/mp4",
	"video/quicktime",
}

type Store struct {
	Dir          string
	MaxFileBytes int64
	MaxFiles     int
	Allowed      []string
}

func New(cfg config.UploadConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: cfg.Dir, MaxFileBytes: cfg.MaxFileBytes, MaxFiles: cfg.MaxFiles, Allowed: DefaultAllowed}, nil
}

// Checked is a file that passed validation.
type Checked struct {
	Header *multipart.FileHeader
	MIME   *mimetype.MIME
}

// Validate runs every constraint on every file before anything is written.
func (s *Store) Validate(files []*multipart.FileHeader) ([]Checked, error) {
	if s.MaxFiles > 0 && len(files) > s.MaxFiles {
		return nil, fmt.Errorf("%d files, limit %d: %w", len(files), s.MaxFiles, ErrTooManyFiles)
	}
	out := make([]Checked, 0, len(files))
	for _, fh := range files {
		if s.MaxFileBytes > 0 && fh.Size > s.MaxFileBytes {
			return nil, fmt.Errorf("%s: %w", fh.Filename, ErrFileTooLarge)
		}
		mt, err := sniff(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		if !s.allowed(mt) {
			return nil, fmt.Errorf("%s (%s): %w", fh.Filename, mt.String(), ErrUnsupportedType)
		}
		out = append(out, Checked{Header: fh, MIME: mt})
	}
	return out, nil
}

func sniff(fh *multipart.FileHeader) (*mimetype.MIME, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mimetype.DetectReader(f)
}

func (s *Store) allowed(mt *mimetype.MIME) bool {
	for _, a := range s.Allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

// SaveAll validates then writes files as <uuid><ext>. If any write fails the
// files already written by this call are removed.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]models.Attachment, error) {
	checked, err := s.Validate(files)
	if err != nil {
		return nil, err
	}
	saved := make([]models.Attachment, 0, len(checked))
	for _, c := range checked {
		a, err := s.save(c)
		if err != nil {
			_ = s.Remove(saved)
			return nil, fmt.Errorf("save %s: %w", c.Header.Filename, err)
		}
		saved = append(saved, a)
	}
	return saved, nil
}

func (s *Store) save(c Checked) (models.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(c.Header.Filename))
	if ext == "" {
		ext = c.MIME.Extension()
	}
	name := uuid.NewString() + ext
	path := filepath.Join(s.Dir, name)

	src, err := c.Header.Open()
	if err != nil {
		return models.Attachment{}, err
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return models.Attachment{}, err
	}
	n, err := io.Copy(dst, io.LimitReader(src, s.limit()+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxFileBytes > 0 && n > s.MaxFileBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return models.Attachment{}, err
	}
	return models.Attachment{
		OriginalName: c.Header.Filename,
		Filename:     name,
		Size:         n,
		Mimetype:     c.MIME.String(),
		UploadPath:   path,
	}, nil
}

func (s *Store) limit() int64 {
	if s.MaxFileBytes > 0 {
		return s.MaxFileBytes
	}
	return 1<<63 - 2
}

// formOverhead covers part headers and the non-file form fields.
const formOverhead = 1 << 20

// RequestLimit is the largest submission body that can still be valid:
// MaxFiles files of MaxFileBytes each plus form overhead. Bodies are cut off
// at this size and parsed in memory up to it, so a rejected file never
// reaches a temp file.
func (s *Store) RequestLimit() int64 {
	if s.MaxFileBytes <= 0 || s.MaxFiles <= 0 {
		return 0
	}
	return int64(s.MaxFiles)*s.MaxFileBytes + formOverhead
}

// Remove deletes attachment files; missing files are not an error.
func (s *Store) Remove(atts []models.Attachment) error {
	var errs []error
	for _, a := range atts {
		if a.Filename == "" {
			continue
		}
		// 只按文件名删除，防止记录里的路径越出上传目录
		err := os.Remove(filepath.Join(s.Dir, filepath.Base(a.Filename)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep removes files older than maxAge that no record references.
func (s *Store) Sweep(keep map[string]struct{}, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := keep[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
