package v1

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/gfdmit/web-forum/feed-service/internal/auth"
	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/gfdmit/web-forum/feed-service/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	accountKey = "accountId"
	uploadKey  = "upload"

	msgInternal = "An error occurred."
	msgTimeout  = "Request timed out."
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindBadRequest:      http.StatusBadRequest,
	apperr.KindValidation:      http.StatusUnprocessableEntity,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindConflict:        http.StatusConflict,
}

// respondErrors turns the last error pushed by a handler into the JSON error body and
// removes the image uploaded by the failed request.
func (h *handler) respondErrors(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	if upload, ok := uploadedFile(c); ok {
		if err := h.svc.Files().Delete(context.WithoutCancel(c.Request.Context()), upload.Ref); err != nil {
			log.Printf("[HTTP] could not remove upload %s: %v", upload.Ref, err)
		}
	}

	err := c.Errors.Last().Err
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, body)
}

func errorBody(err error) (int, gin.H) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, gin.H{"message": msgTimeout}
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		return http.StatusInternalServerError, gin.H{"message": msgInternal}
	}

	body := gin.H{"message": ae.Message}
	if len(ae.Fields) > 0 {
		body["data"] = ae.Fields
	}
	return statusByKind[ae.Kind], body
}

func recoverToError(c *gin.Context, recovered any) {
	c.Error(fmt.Errorf("panic: %v", recovered))
	c.Abort()
}

// timeout bounds every store and file call made for the request. Zero disables it.
func (h *handler) timeout(c *gin.Context) {
	if h.conf.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.conf.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func (h *handler) requireAuth(c *gin.Context) {
	token, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.Error(apperr.Unauthenticated(service.MsgNotAuthenticated))
		c.Abort()
		return
	}

	claims, err := h.svc.Authenticate(token)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.Set(accountKey, claims.AccountID)
	c.Request = c.Request.WithContext(auth.NewContext(c.Request.Context(), claims))
	c.Next()
}

func uploadedFile(c *gin.Context) (*model.UploadedFile, bool) {
	v, ok := c.Get(uploadKey)
	if !ok {
		return nil, false
	}
	upload, ok := v.(*model.UploadedFile)
	return upload, ok && upload != nil
}
