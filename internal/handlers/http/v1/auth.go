package v1

import (
	"net/http"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/gfdmit/web-forum/feed-service/internal/validation"
	"github.com/gin-gonic/gin"
)

const (
	msgMalformedBody = "Malformed request body."
	msgUserCreated   = "User created!"
)

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.BadRequest(msgMalformedBody))
		return
	}

	in, err := validation.NewSignup(req.Email, req.Name, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	id, err := h.svc.Signup(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msgUserCreated, "userId": id})
}

func (h *handler) signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.BadRequest(msgMalformedBody))
		return
	}

	token, id, err := h.svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "userId": id})
}
