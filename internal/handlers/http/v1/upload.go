package v1

import (
	"errors"
	"net/http"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	imageField = "image"

	msgTooLarge = "Uploaded file is too large."
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// acceptImage stores the "image" form file before the handler runs. Missing files, other
// fields and disallowed types all leave the request without an upload; the handler decides
// whether that is an error.
func (h *handler) acceptImage(c *gin.Context) {
	if h.conf.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.conf.MaxUploadSize)
	}

	file, header, err := c.Request.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(apperr.BadRequest(msgTooLarge))
			c.Abort()
			return
		}
		c.Next()
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		c.Next()
		return
	}

	ref, err := h.svc.Files().Save(c.Request.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		c.Error(apperr.Internal("store upload", err))
		c.Abort()
		return
	}

	c.Set(uploadKey, &model.UploadedFile{
		Ref:          ref,
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
	})
	c.Next()
}
