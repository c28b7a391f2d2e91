// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinator

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/repository"
	"github.com/pdiddy/pdfsum/pkg/types"
)

const pdfMIME = "application/pdf"

// sniffLen is how much of an oversized file is read: enough for content
// type detection, not the whole file.
const sniffLen = 3072

// Document is a file selected for upload.
type Document struct {
	// Name is the file name sent to the server.
	Name string
	// Size is the file's size on disk. It can exceed len(Data) when the
	// file was too large to read in full.
	Size int64
	Data []byte
}

// NewDocument returns a document held fully in memory.
func NewDocument(name string, data []byte) Document {
	return Document{Name: name, Size: int64(len(data)), Data: data}
}

// ReadDocument loads the file at path. Files larger than limit are read
// only far enough to detect their type, so that Validate can reject them
// without loading them.
func ReadDocument(path string, limit int64) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a directory", path)
	}

	readLen := info.Size()
	if limit > 0 && readLen > limit {
		readLen = sniffLen
	}
	data, err := io.ReadAll(io.LimitReader(f, readLen))
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return Document{Name: filepath.Base(path), Size: info.Size(), Data: data}, nil
}

// Validate checks a document before upload: it must carry a .pdf name and
// PDF content, and be no larger than maxBytes (types.MaxUploadBytes when
// maxBytes is not positive). The type check runs first.
func Validate(doc Document, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = types.MaxUploadBytes
	}

	if !strings.EqualFold(filepath.Ext(doc.Name), ".pdf") {
		return &apierr.Error{
			Kind: apierr.KindValidation, Op: repository.OpUpload, Message: "not a PDF",
			Err: fmt.Errorf("%s does not have a .pdf extension", doc.Name),
		}
	}
	if mt := mimetype.Detect(doc.Data); !mt.Is(pdfMIME) {
		return &apierr.Error{
			Kind: apierr.KindValidation, Op: repository.OpUpload, Message: "not a PDF",
			Err: fmt.Errorf("%s has content type %s", doc.Name, mt.String()),
		}
	}

	size := doc.Size
	if n := int64(len(doc.Data)); n > size {
		size = n
	}
	if size > maxBytes {
		return &apierr.Error{
			Kind: apierr.KindValidation, Op: repository.OpUpload, Message: "too large",
			Err: fmt.Errorf("%s is %s, limit is %s", doc.Name,
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxBytes))),
		}
	}
	return nil
}

// PageCount returns the number of pages in a PDF. It is informational
// only; a document pdfcpu cannot read is still uploaded.
func PageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading PDF: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
