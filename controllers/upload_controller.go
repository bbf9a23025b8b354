package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/blogapi/utils"
)

const (
	// UploadsURLPrefix is where the upload directory is served.
	UploadsURLPrefix = "/uploads"
	uploadField      = "image"
	avatarSubdir     = "avatars"
)

// UploadController stores images on local disk.
type UploadController struct {
	dir      string
	maxBytes int64
}

// NewUploadController creates an UploadController writing into dir.
func NewUploadController(dir string, maxMB int) *UploadController {
	if maxMB <= 0 {
		maxMB = 10
	}
	return &UploadController{dir: dir, maxBytes: int64(maxMB) << 20}
}

// UploadImage stores a post image.
func (u *UploadController) UploadImage(ctx *gin.Context) {
	u.save(ctx, "")
}

// UploadAvatar stores an avatar image.
func (u *UploadController) UploadAvatar(ctx *gin.Context) {
	u.save(ctx, avatarSubdir)
}

func (u *UploadController) save(ctx *gin.Context, subdir string) {
	file, header, err := ctx.Request.FormFile(uploadField)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > u.maxBytes {
		utils.Error(ctx, http.StatusBadRequest, fmt.Sprintf("file size exceeds %dMB", u.maxBytes>>20))
		return
	}

	baseDir := filepath.Join(u.dir, subdir)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Sugar.Errorf("create upload directory %s: %v", baseDir, err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to save file")
		return
	}

	name := uuid.NewString() + "_" + cleanFileName(header.Filename)
	dstPath := filepath.Join(baseDir, name)
	out, err := os.Create(dstPath)
	if err != nil {
		utils.Sugar.Errorf("create upload %s: %v", dstPath, err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to save file")
		return
	}
	defer out.Close()

	// header.Size is client supplied, so enforce the limit while copying too
	written, err := io.Copy(out, &io.LimitedReader{R: file, N: u.maxBytes + 1})
	if err != nil || written > u.maxBytes {
		_ = out.Close()
		_ = os.Remove(dstPath)
		if err != nil {
			utils.Sugar.Errorf("write upload %s: %v", dstPath, err)
			utils.Error(ctx, http.StatusInternalServerError, "failed to write file")
			return
		}
		utils.Error(ctx, http.StatusBadRequest, fmt.Sprintf("file size exceeds %dMB", u.maxBytes>>20))
		return
	}

	utils.Success(ctx, gin.H{"url": path.Join(UploadsURLPrefix, subdir, name)})
}

// cleanFileName keeps the base name of the client file, without separators.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == 0:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
