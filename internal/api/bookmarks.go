package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/richmontato/eznews2/internal/api/middleware"
	"github.com/richmontato/eznews2/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type bookmarkResponse struct {
	ID        uint            `json:"id"`
	ArticleID uint            `json:"article_id"`
	CreatedAt time.Time       `json:"created_at"`
	Article   articleListItem `json:"article"`
}

// handleListBookmarks 返回当前用户的收藏，按收藏时间倒序。
func (s *Server) handleListBookmarks(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	var bookmarks []model.Bookmark
	err := s.db.
		Preload("Article").
		Preload("Article.Category").
		Preload("Article.Tags").
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&bookmarks).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query bookmarks failed"})
		return
	}

	out := make([]bookmarkResponse, 0, len(bookmarks))
	for i := range bookmarks {
		b := &bookmarks[i]
		out = append(out, bookmarkResponse{
			ID:        b.ID,
			ArticleID: b.ArticleID,
			CreatedAt: b.CreatedAt,
			Article:   newArticleListItem(&b.Article, true),
		})
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": out})
}

// handleAddBookmark 收藏文章，重复收藏幂等返回 200。
func (s *Server) handleAddBookmark(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	var req struct {
		ArticleID uint `json:"article_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id is required"})
		return
	}

	var article model.Article
	if err := s.db.First(&article, req.ArticleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query article failed"})
		}
		return
	}

	var existing model.Bookmark
	err := s.db.Where("user_id = ? AND article_id = ?", user.ID, req.ArticleID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"message": "article already bookmarked"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query bookmark failed"})
		return
	}

	bookmark := model.Bookmark{UserID: user.ID, ArticleID: req.ArticleID}
	if err := s.db.Create(&bookmark).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create bookmark failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "article bookmarked"})
}

// handleRemoveBookmark 取消收藏，收藏不存在时返回 404。
func (s *Server) handleRemoveBookmark(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	articleID, err := strconv.Atoi(c.Param("article_id"))
	if err != nil || articleID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	result := s.db.Where("user_id = ? AND article_id = ?", user.ID, articleID).Delete(&model.Bookmark{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete bookmark failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "bookmark not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bookmark removed"})
}
