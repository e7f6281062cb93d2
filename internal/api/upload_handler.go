package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"

	"caseintake/internal/api/middleware"
	"caseintake/internal/storage"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// ErrInfected is returned by a Scanner that found malware.
var ErrInfected = errors.New("malicious file detected")

// Uploader stores uploaded files and exposes their public URL.
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	PublicURL(objectKey string) string
}

// Scanner inspects a file before it is stored.
type Scanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 命令扫描文件。
type ClamdScanner struct {
	Addr string
}

// Scan returns ErrInfected when clamd reports anything but OK.
func (s ClamdScanner) Scan(r io.Reader) error {
	client := clamd.NewClamd(s.Addr)
	abort := make(chan bool)
	defer close(abort)

	results, err := client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	for result := range results {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("%w: %s", ErrInfected, result.Description)
		}
	}
	return nil
}

// UploadHandler 负责表单附件上传：大小限制、可选病毒扫描、写入公开 bucket。
type UploadHandler struct {
	Storage  Uploader
	Scanner  Scanner
	MaxBytes int64
	now      func() time.Time
}

// NewUploadHandler 返回 UploadHandler 实例。scanner 可为 nil（不扫描）。
func NewUploadHandler(uploader Uploader, scanner Scanner, maxBytes int64) *UploadHandler {
	return &UploadHandler{Storage: uploader, Scanner: scanner, MaxBytes: maxBytes, now: time.Now}
}

// Upload stores the multipart "file" part and returns its public URL, which
// the intake form then submits as foto-url, cv-url or consentimiento-url.
func (h *UploadHandler) Upload(c *gin.Context) {
	log := middleware.LoggerFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		BadRequest(c, "missing file")
		return
	}
	if file.Size > h.MaxBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	if h.Scanner != nil {
		reader, err := file.Open()
		if err != nil {
			Internal(c, "failed to open file")
			return
		}
		err = h.Scanner.Scan(reader)
		reader.Close()
		if errors.Is(err, ErrInfected) {
			log.Warn("upload rejected by scanner", slog.String("filename", file.Filename))
			BadRequest(c, "malicious file detected")
			return
		}
		if err != nil {
			log.Error("scan upload failed", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	objectKey, err := storage.NewUploadKey(file.Filename, h.now())
	if err != nil {
		Internal(c, "failed to name file")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := h.Storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType); err != nil {
		log.Error("upload file failed", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": h.Storage.PublicURL(objectKey), "objectKey": objectKey})
}
