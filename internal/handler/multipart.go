package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"teahouse/internal/util"
	"teahouse/pkg/apierror"
)

const maxFieldSize = 64 << 10

// UploadConfig bounds multipart requests and says where files are staged.
type UploadConfig struct {
	TempDir string
	MaxSize int64
}

type stagedFile struct {
	Path        string
	ContentType string
	Filename    string
}

type stagedForm struct {
	Values map[string]string
	Files  map[string]stagedFile
}

func (f *stagedForm) file(name string) stagedFile {
	if f == nil {
		return stagedFile{}
	}
	return f.Files[name]
}

// Cleanup removes every staged file. Services remove the files they consume,
// so this only matters on paths that never reach them.
func (f *stagedForm) Cleanup() {
	if f == nil {
		return
	}
	for _, file := range f.Files {
		_ = os.Remove(file.Path)
	}
}

// stageMultipart streams a multipart body to disk. Only parts named in
// fileFields are kept as files; each must sniff as an image.
func stageMultipart(w http.ResponseWriter, r *http.Request, cfg UploadConfig, fileFields ...string) (*stagedForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxSize)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, apierror.BadRequest("Invalid multipart body")
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload temp dir: %w", err)
	}

	allowed := make(map[string]bool, len(fileFields))
	for _, f := range fileFields {
		allowed[f] = true
	}

	form := &stagedForm{Values: map[string]string{}, Files: map[string]stagedFile{}}
	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			form.Cleanup()
			return nil, multipartError(nextErr)
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, readErr := io.ReadAll(io.LimitReader(part, maxFieldSize))
			_ = part.Close()
			if readErr != nil {
				form.Cleanup()
				return nil, multipartError(readErr)
			}
			form.Values[name] = string(value)
			continue
		}

		if !allowed[name] || form.Files[name].Path != "" {
			_ = part.Close()
			continue
		}

		staged, stageErr := stagePart(cfg.TempDir, part)
		_ = part.Close()
		if stageErr != nil {
			form.Cleanup()
			return nil, stageErr
		}
		form.Files[name] = staged
	}

	return form, nil
}

func stagePart(dir string, part *multipart.Part) (stagedFile, error) {
	original := part.FileName()
	target := filepath.Join(dir, uuid.NewString()+"_"+util.SanitizeFilename(original))
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return stagedFile{}, fmt.Errorf("create staged file: %w", err)
	}

	_, copyErr := io.Copy(out, part)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(target)
		return stagedFile{}, multipartError(copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(target)
		return stagedFile{}, closeErr
	}

	contentType, err := util.DetectMIMEFromPath(target)
	if err != nil {
		_ = os.Remove(target)
		return stagedFile{}, apierror.BadRequest("Uploaded file is empty")
	}
	if !util.IsImageMIME(contentType) {
		_ = os.Remove(target)
		return stagedFile{}, apierror.New(http.StatusUnsupportedMediaType, "Only image uploads are allowed", contentType)
	}
	if err := util.CheckImageBounds(target); err != nil {
		_ = os.Remove(target)
		return stagedFile{}, apierror.BadRequest("Image dimensions are too large")
	}

	return stagedFile{Path: target, ContentType: contentType, Filename: original}, nil
}

func multipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return apierror.New(http.StatusRequestEntityTooLarge, "Request body exceeds MAX_UPLOAD_SIZE")
	}
	return apierror.BadRequest("Invalid multipart stream")
}
