package v1

import (
	"net/http"
	"time"

	"github.com/gfdmit/web-forum/feed-service/config"
	gql "github.com/gfdmit/web-forum/feed-service/internal/handlers/http/v1/graphql"
	"github.com/gfdmit/web-forum/feed-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type handler struct {
	svc   *service.Service
	conf  config.HTTPServer
	media config.Media
}

func New(svc *service.Service, conf config.Config) (*gin.Engine, error) {
	var (
		router = gin.New()
		h      = &handler{svc: svc, conf: conf.HTTPServer, media: conf.Media}
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300 * time.Second,
	}))
	router.Use(gin.Recovery())

	gqlHandler, err := gql.New(svc)
	if err != nil {
		return nil, err
	}

	router.GET("/"+h.media.Dir+"/*path", h.serveImage)

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.Use(h.apiMiddleware()...)

		apiGroup.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/signup", h.signup)
			authGroup.POST("/signin", h.signin)
		}

		feedGroup := apiGroup.Group("/feed", h.requireAuth)
		{
			feedGroup.GET("/posts", h.getPosts)
			feedGroup.GET("/post/:postId", h.getPost)
			feedGroup.POST("/addpost", h.acceptImage, h.createPost)
			feedGroup.PUT("/post/:postId", h.acceptImage, h.updatePost)
			feedGroup.DELETE("/post/:postId", h.deletePost)
		}

		apiGroup.Any("/graphql", h.requireAuth, gin.WrapH(gqlHandler))
	}

	return router, nil
}

// apiMiddleware runs in front of every /api/v1 route. Panics are recovered inside
// respondErrors so a failed request still gets its upload removed.
func (h *handler) apiMiddleware() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		gin.Logger(),
		h.respondErrors,
		gin.CustomRecovery(recoverToError),
		h.timeout,
	}
}
