package v1

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/gfdmit/web-forum/feed-service/internal/storage"
	"github.com/gfdmit/web-forum/feed-service/internal/validation"
	"github.com/gin-gonic/gin"
)

const (
	msgPostsFetched = "Fetched posts successfully."
	msgPostFetched  = "Post fetched."
	msgPostCreated  = "Post created successfully!"
	msgPostUpdated  = "Post updated!"
	msgPostDeleted  = "Deleted post."
	msgImageMissing = "Image not found."
)

func (h *handler) getPosts(c *gin.Context) {
	page := queryInt(c, "page")
	perPage := queryInt(c, "perPage")

	result, err := h.svc.GetPosts(c.Request.Context(), page, perPage)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    msgPostsFetched,
		"posts":      result.Posts,
		"postsCount": result.PostsCount,
	})
}

func (h *handler) getPost(c *gin.Context) {
	post, err := h.svc.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgPostFetched, "post": post})
}

func (h *handler) createPost(c *gin.Context) {
	in, err := validation.NewPost(c.PostForm("title"), c.PostForm("content"))
	if err != nil {
		c.Error(err)
		return
	}

	upload, _ := uploadedFile(c)
	post, creator, err := h.svc.CreatePost(c.Request.Context(), c.GetString(accountKey), in, upload)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msgPostCreated, "post": post, "creator": creator})
}

func (h *handler) updatePost(c *gin.Context) {
	in, err := validation.NewPost(c.PostForm("title"), c.PostForm("content"))
	if err != nil {
		c.Error(err)
		return
	}

	upload, _ := uploadedFile(c)
	post, err := h.svc.UpdatePost(c.Request.Context(), c.GetString(accountKey), c.Param("postId"), in, upload)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgPostUpdated, "post": post})
}

func (h *handler) deletePost(c *gin.Context) {
	if err := h.svc.DeletePost(c.Request.Context(), c.GetString(accountKey), c.Param("postId")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgPostDeleted})
}

// serveImage streams a stored image back by its reference.
func (h *handler) serveImage(c *gin.Context) {
	ref, err := storage.CleanRef(path.Join(h.media.Dir, c.Param("path")))
	if err != nil || !storage.InDir(ref, h.media.Dir) {
		c.JSON(http.StatusNotFound, gin.H{"message": msgImageMissing})
		return
	}

	file, err := h.svc.Files().Open(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			c.JSON(http.StatusNotFound, gin.H{"message": msgImageMissing})
			return
		}
		log.Printf("[HTTP] open image %s: %v", ref, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		log.Printf("[HTTP] serve image %s: %v", ref, err)
	}
}

// queryInt returns 0 for missing or non-integer values so the service applies its defaults.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
