// Package httpapi exposes the thin HTTP boundary: timeline reads, user
// creation, posting, following, and the token-guarded admin endpoints.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Moustapha2526/TinyIsnta/internal/feed"
	"github.com/Moustapha2526/TinyIsnta/internal/seed"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
)

// Handler wires HTTP routes to the social services.
type Handler struct {
	graph     *social.Graph
	posts     *social.Posts
	feed      *feed.Service
	seeder    *seed.Pipeline
	seedToken string
}

// NewHandler creates the HTTP handler. An empty seedToken leaves the admin
// endpoints unguarded (local development only).
func NewHandler(graph *social.Graph, posts *social.Posts, feedSvc *feed.Service, seeder *seed.Pipeline, seedToken string) *Handler {
	return &Handler{
		graph:     graph,
		posts:     posts,
		feed:      feedSvc,
		seeder:    seeder,
		seedToken: seedToken,
	}
}

// RegisterRoutes mounts all routes on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/timeline", h.getTimeline)
		api.POST("/login", h.login)
		api.POST("/posts", h.createPost)
		api.POST("/follow", h.follow)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	admin := router.Group("/admin", h.requireSeedToken)
	{
		admin.POST("/seed", h.runSeed)
		admin.POST("/clear", h.clear)
	}
}

type timelineItem struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Created string `json:"created"`
}

func (h *Handler) getTimeline(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	limit := feed.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	limit = feed.Clamp(limit)

	posts, err := h.feed.GetTimeline(c.Request.Context(), user, limit)
	if err != nil {
		if errors.Is(err, social.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]timelineItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, timelineItem{
			Author:  p.Author,
			Content: p.Content,
			Created: p.CreatedTime().Format(time.RFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "count": len(items), "items": items})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
}

// login creates the user on first sight, matching first-login semantics.
// There is no session state here.
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.graph.EnsureUser(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": req.Username, "created": created})
}

type createPostRequest struct {
	Author  string `json:"author" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h *Handler) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.graph.Get(c.Request.Context(), req.Author); err != nil {
		if errors.Is(err, social.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), req.Author, req.Content, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      post.ID,
		"author":  post.Author,
		"content": post.Content,
		"created": post.CreatedTime().Format(time.RFC3339Nano),
	})
}

type followRequest struct {
	User     string `json:"user" binding:"required"`
	ToFollow string `json:"to_follow" binding:"required"`
}

func (h *Handler) follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.graph.Follow(c.Request.Context(), req.User, req.ToFollow); err != nil {
		if errors.Is(err, social.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireSeedToken guards admin routes. The token may arrive in the
// X-Seed-Token header or a token query parameter.
func (h *Handler) requireSeedToken(c *gin.Context) {
	if h.seedToken == "" {
		c.Next()
		return
	}
	provided := c.GetHeader("X-Seed-Token")
	if provided == "" {
		provided = c.Query("token")
	}
	if provided != h.seedToken {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

type seedRequest struct {
	Users            int    `json:"users"`
	PostsPerUser     int    `json:"posts_per_user"`
	FolloweesPerUser int    `json:"followees_per_user"`
	Prefix           string `json:"prefix"`
	Seed             int64  `json:"seed"`
	Clean            bool   `json:"clean"`
	DryRun           bool   `json:"dry_run"`
}

func (h *Handler) runSeed(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.seeder.Run(c.Request.Context(), seed.Params{
		Users:            req.Users,
		PostsPerUser:     req.PostsPerUser,
		FolloweesPerUser: req.FolloweesPerUser,
		Prefix:           req.Prefix,
		Seed:             req.Seed,
		Clean:            req.Clean,
		DryRun:           req.DryRun,
	})
	if err != nil {
		if errors.Is(err, seed.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status := gin.H{"error": err.Error()}
		if result != nil {
			status["result"] = result
		}
		c.JSON(http.StatusInternalServerError, status)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "result": result})
}

func (h *Handler) clear(c *gin.Context) {
	users, posts, err := h.seeder.Wipe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         err.Error(),
			"users_deleted": users,
			"posts_deleted": posts,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"users_deleted": users,
		"posts_deleted": posts,
	})
}
