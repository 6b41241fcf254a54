package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/apperror"
)

const maxImagesPerUpload = 5

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".pdf":  {},
}

var allowedContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"}

var errUnsupportedFile = apperror.Validation("Only images (jpeg, jpg, png, gif, webp) and PDF files are allowed")

// Uploads stores files under Dir, served publicly at /uploads/<name>.
type Uploads struct {
	Dir     string
	MaxSize int64
	Logger  *zap.Logger
}

type uploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
}

func (u Uploads) save(file *multipart.FileHeader) (uploadedFile, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedExtensions[extension]; !ok {
		return uploadedFile{}, errUnsupportedFile
	}
	if file.Size > u.MaxSize {
		return uploadedFile{}, apperror.Validation(fmt.Sprintf("File too large (max %d bytes)", u.MaxSize))
	}

	in, err := file.Open()
	if err != nil {
		return uploadedFile{}, apperror.Internal("open upload", err)
	}
	defer in.Close()

	detected, err := mimetype.DetectReader(in)
	if err != nil {
		return uploadedFile{}, apperror.Internal("detect upload type", err)
	}
	if !mimetype.EqualsAny(detected.String(), allowedContentTypes...) {
		return uploadedFile{}, errUnsupportedFile
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return uploadedFile{}, apperror.Internal("rewind upload", err)
	}

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return uploadedFile{}, apperror.Internal("create upload dir", err)
	}

	// The stored extension follows the sniffed content, not the client name.
	filename := uuid.NewString() + detected.Extension()
	fullPath := filepath.Join(u.Dir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		return uploadedFile{}, apperror.Internal("create upload", err)
	}
	written, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return uploadedFile{}, apperror.Internal("write upload", err)
	}

	u.Logger.Debug("upload stored", zap.String("filename", filename), zap.Int64("size", written))
	return uploadedFile{
		Filename:     filename,
		OriginalName: file.Filename,
		URL:          "/uploads/" + filename,
		Size:         written,
	}, nil
}

func (u Uploads) single(c *gin.Context, field string) (uploadedFile, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || strings.Contains(err.Error(), "no such file") {
			respondWithError(c, apperror.Validation("No file uploaded"))
		} else {
			respondWithError(c, apperror.Validation(err.Error()))
		}
		return uploadedFile{}, false
	}
	stored, err := u.save(file)
	if err != nil {
		respondWithError(c, err)
		return uploadedFile{}, false
	}
	return stored, true
}

func UploadImage(u Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		stored, ok := u.single(c, "image")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "File uploaded successfully", "file": stored})
	}
}

func UploadImages(u Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			respondWithError(c, apperror.Validation("No files uploaded"))
			return
		}
		files := form.File["images"]
		if len(files) == 0 {
			respondWithError(c, apperror.Validation("No files uploaded"))
			return
		}
		if len(files) > maxImagesPerUpload {
			respondWithError(c, apperror.Validation(fmt.Sprintf("At most %d files can be uploaded at once", maxImagesPerUpload)))
			return
		}

		stored := make([]uploadedFile, 0, len(files))
		for _, file := range files {
			saved, err := u.save(file)
			if err != nil {
				for _, done := range stored {
					_ = safeDeleteUpload(u.Dir, done.Filename)
				}
				respondWithError(c, err)
				return
			}
			stored = append(stored, saved)
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("%d files uploaded successfully", len(stored)),
			"files":   stored,
		})
	}
}

func UploadPaymentProof(u Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		stored, ok := u.single(c, "proof")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment proof uploaded successfully", "proofUrl": stored.URL})
	}
}

func DeleteUpload(u Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := safeDeleteUpload(u.Dir, c.Param("filename"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
		case errors.Is(err, errUploadNotFound):
			respondWithError(c, apperror.NotFound("File not found"))
		default:
			respondWithError(c, apperror.Internal("delete upload", err))
		}
	}
}
