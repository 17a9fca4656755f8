package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paulstaab/headless-rss/app/cfg"
	"github.com/paulstaab/headless-rss/app/database"
	"github.com/paulstaab/headless-rss/app/email"
	"github.com/paulstaab/headless-rss/app/feed"
	"github.com/paulstaab/headless-rss/app/folder"
)

func NewHandler(feedService *feed.Service, folderService *folder.Service, emailService *email.Service,
	feeds database.FeedRepository, articles database.ArticleRepository) *Handler {
	return &Handler{
		feedService:   feedService,
		folderService: folderService,
		emailService:  emailService,
		feeds:         feeds,
		articles:      articles,
	}
}

// NewServer creates the HTTP server with all routes configured. Everything
// except the health endpoint sits behind HTTP basic auth, matching what
// Nextcloud News client apps expect.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)

	conf := cfg.Get()
	var auth gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if conf.Username != "" {
		auth = gin.BasicAuth(gin.Accounts{conf.Username: conf.Password})
	}

	news := r.Group("/index.php/apps/news/api/v1-2", auth)
	{
		news.GET("/version", handler.GetVersion)
		news.GET("/status", handler.GetStatus)

		news.GET("/folders", handler.ListFolders)
		news.POST("/folders", handler.CreateFolder)
		news.PUT("/folders/:folderId", handler.RenameFolder)
		news.DELETE("/folders/:folderId", handler.DeleteFolder)
		news.PUT("/folders/:folderId/read", handler.MarkFolderRead)

		news.GET("/feeds", handler.ListFeeds)
		news.POST("/feeds", handler.CreateFeed)
		news.DELETE("/feeds/:feedId", handler.DeleteFeed)
		news.PUT("/feeds/:feedId/move", handler.MoveFeed)
		news.PUT("/feeds/:feedId/rename", handler.RenameFeed)
		news.PUT("/feeds/:feedId/read", handler.MarkFeedRead)

		news.GET("/items", handler.ListItems)
		news.GET("/items/updated", handler.ListUpdatedItems)
		news.PUT("/items/read", handler.MarkAllItemsRead)
		news.PUT("/items/read/multiple", handler.MarkItemsRead)
		news.PUT("/items/unread/multiple", handler.MarkItemsUnread)
		news.PUT("/items/star/multiple", handler.StarItems)
		news.PUT("/items/unstar/multiple", handler.UnstarItems)
		news.PUT("/items/:itemId/read", handler.MarkItemRead)
		news.PUT("/items/:itemId/unread", handler.MarkItemUnread)
		news.PUT("/items/:itemId/:guidHash/star", handler.StarItem)
		news.PUT("/items/:itemId/:guidHash/unstar", handler.UnstarItem)
	}

	mail := r.Group("/email", auth)
	{
		mail.POST("/credentials", handler.AddEmailCredentials)
	}
}
