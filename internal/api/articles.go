package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/richmontato/eznews2/internal/api/middleware"
	"github.com/richmontato/eznews2/internal/model"
	"github.com/richmontato/eznews2/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPageSize = 10

type categoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type tagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// articleListItem 是列表视图的文章序列化结果，不含正文。
type articleListItem struct {
	ID            uint          `json:"id"`
	Title         string        `json:"title"`
	CategoryID    uint          `json:"category_id"`
	Category      *categoryResponse `json:"category,omitempty"`
	ImageURL      string        `json:"image_url,omitempty"`
	AuthorName    string        `json:"author_name"`
	SourceURL     string        `json:"source_url,omitempty"`
	PublishedDate time.Time     `json:"published_date"`
	Tags          []tagResponse `json:"tags"`
	IsBookmarked  bool          `json:"is_bookmarked"`
	CreatedAt     time.Time     `json:"created_at"`
}

type articleDetail struct {
	articleListItem
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCategoryResponse(cat *model.Category) *categoryResponse {
	if cat == nil || cat.ID == 0 {
		return nil
	}
	return &categoryResponse{ID: cat.ID, Name: cat.Name, Slug: cat.Slug}
}

func newTagResponses(tags []model.Tag) []tagResponse {
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return out
}

func newArticleListItem(a *model.Article, bookmarked bool) articleListItem {
	return articleListItem{
		ID:            a.ID,
		Title:         a.Title,
		CategoryID:    a.CategoryID,
		Category:      newCategoryResponse(&a.Category),
		ImageURL:      a.ImageURL,
		AuthorName:    a.AuthorName,
		SourceURL:     a.SourceURL,
		PublishedDate: a.PublishedDate,
		Tags:          newTagResponses(a.Tags),
		IsBookmarked:  bookmarked,
		CreatedAt:     a.CreatedAt,
	}
}

func newArticleDetail(a *model.Article, bookmarked bool) articleDetail {
	return articleDetail{
		articleListItem: newArticleListItem(a, bookmarked),
		Content:         a.Content,
		UpdatedAt:       a.UpdatedAt,
	}
}

// handleListArticles 按条件分页查询文章。
//
// 支持 search（标题/正文子串）、category_id（精确匹配）、
// date_from/date_to（发布时间闭区间）、page/limit 分页参数。
// 列表项不含正文，附带当前用户的收藏标记。
func (s *Server) handleListArticles(c *gin.Context) {
	page, ok := parseQueryInt(c, "page", 1)
	if !ok || page <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	limit, ok := parseQueryInt(c, "limit", defaultPageSize)
	if !ok || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	query := s.db.Model(&model.Article{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}
	if rawCat := c.Query("category_id"); rawCat != "" {
		catID, err := strconv.Atoi(rawCat)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		query = query.Where("category_id = ?", catID)
	}
	if rawFrom := c.Query("date_from"); rawFrom != "" {
		from, err := parseDateParam(rawFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
			return
		}
		query = query.Where("published_date >= ?", from)
	}
	if rawTo := c.Query("date_to"); rawTo != "" {
		to, err := parseDateParam(rawTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
			return
		}
		query = query.Where("published_date <= ?", to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count articles failed"})
		return
	}

	var articles []model.Article
	err := query.
		Preload("Category").
		Preload("Tags").
		Order("published_date DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query articles failed"})
		return
	}

	bookmarked, err := s.bookmarkedSet(c, articles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query bookmarks failed"})
		return
	}

	items := make([]articleListItem, 0, len(articles))
	for i := range articles {
		items = append(items, newArticleListItem(&articles[i], bookmarked[articles[i].ID]))
	}

	pages := 0
	if total > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":     items,
		"total":        total,
		"pages":        pages,
		"current_page": page,
	})
}

// handleGetArticle 返回单篇文章全文。
func (s *Server) handleGetArticle(c *gin.Context) {
	article, ok := s.loadArticle(c)
	if !ok {
		return
	}

	isBookmarked := false
	if user, authed := middleware.CurrentUser(c); authed {
		var count int64
		err := s.db.Model(&model.Bookmark{}).
			Where("user_id = ? AND article_id = ?", user.ID, article.ID).
			Count(&count).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query bookmarks failed"})
			return
		}
		isBookmarked = count > 0
	}

	c.JSON(http.StatusOK, newArticleDetail(article, isBookmarked))
}

type createArticleRequest struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	CategoryID    uint       `json:"category_id"`
	AuthorName    string     `json:"author_name"`
	SourceURL     string     `json:"source_url"`
	ImageURL      string     `json:"image_url"`
	PublishedDate *time.Time `json:"published_date"`
	TagIDs        []uint     `json:"tag_ids"`
}

type updateArticleRequest struct {
	Title         *string    `json:"title"`
	Content       *string    `json:"content"`
	CategoryID    *uint      `json:"category_id"`
	AuthorName    *string    `json:"author_name"`
	SourceURL     *string    `json:"source_url"`
	ImageURL      *string    `json:"image_url"`
	PublishedDate *time.Time `json:"published_date"`
	TagIDs        []uint     `json:"tag_ids"`
}

// handleCreateArticle 创建文章并写入审计日志，两者在同一事务内提交。
func (s *Server) handleCreateArticle(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var errs []string
	if len(strings.TrimSpace(req.Title)) < 5 {
		errs = append(errs, "title must be at least 5 characters")
	}
	if len(strings.TrimSpace(req.Content)) < 50 {
		errs = append(errs, "content must be at least 50 characters")
	}
	if len(strings.TrimSpace(req.AuthorName)) < 2 {
		errs = append(errs, "author name must be at least 2 characters")
	}
	if req.CategoryID == 0 {
		errs = append(errs, "category_id is required")
	} else {
		exists, err := s.categoryExists(req.CategoryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query category failed"})
			return
		}
		if !exists {
			errs = append(errs, "category not found")
		}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	tags, err := s.resolveTags(req.TagIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query tags failed"})
		return
	}

	publishedAt := time.Now()
	if req.PublishedDate != nil {
		publishedAt = *req.PublishedDate
	}

	article := model.Article{
		Title:         strings.TrimSpace(req.Title),
		Content:       strings.TrimSpace(req.Content),
		CategoryID:    req.CategoryID,
		AuthorName:    strings.TrimSpace(req.AuthorName),
		SourceURL:     req.SourceURL,
		ImageURL:      req.ImageURL,
		PublishedDate: publishedAt,
		Tags:          tags,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&article).Error; err != nil {
			return err
		}
		return writeAdminLog(tx, admin.ID, model.ActionCreate, &article.ID,
			fmt.Sprintf("Created article: %s", article.Title))
	})
	if err != nil {
		s.logger.Error("create article failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create article failed"})
		return
	}

	metrics.AdminActionsTotal.WithLabelValues(model.ActionCreate).Inc()
	s.db.Preload("Category").Preload("Tags").First(&article, article.ID)
	c.JSON(http.StatusCreated, newArticleDetail(&article, false))
}

// handleUpdateArticle 按请求中出现的字段做部分更新，标签列表整体替换。
func (s *Server) handleUpdateArticle(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	article, ok := s.loadArticle(c)
	if !ok {
		return
	}

	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var errs []string
	if req.Title != nil && len(strings.TrimSpace(*req.Title)) < 5 {
		errs = append(errs, "title must be at least 5 characters")
	}
	if req.Content != nil && len(strings.TrimSpace(*req.Content)) < 50 {
		errs = append(errs, "content must be at least 50 characters")
	}
	if req.AuthorName != nil && len(strings.TrimSpace(*req.AuthorName)) < 2 {
		errs = append(errs, "author name must be at least 2 characters")
	}
	if req.CategoryID != nil {
		exists, err := s.categoryExists(*req.CategoryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query category failed"})
			return
		}
		if !exists {
			errs = append(errs, "category not found")
		}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	var tags []model.Tag
	if req.TagIDs != nil {
		resolved, err := s.resolveTags(req.TagIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query tags failed"})
			return
		}
		tags = resolved
	}

	if req.Title != nil {
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		article.Content = strings.TrimSpace(*req.Content)
	}
	if req.AuthorName != nil {
		article.AuthorName = strings.TrimSpace(*req.AuthorName)
	}
	if req.CategoryID != nil {
		article.CategoryID = *req.CategoryID
	}
	if req.SourceURL != nil {
		article.SourceURL = *req.SourceURL
	}
	if req.ImageURL != nil {
		article.ImageURL = *req.ImageURL
	}
	if req.PublishedDate != nil {
		article.PublishedDate = *req.PublishedDate
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(article).Error; err != nil {
			return err
		}
		if req.TagIDs != nil {
			if err := tx.Model(article).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return writeAdminLog(tx, admin.ID, model.ActionUpdate, &article.ID,
			fmt.Sprintf("Updated article: %s", article.Title))
	})
	if err != nil {
		s.logger.Error("update article failed", slog.Uint64("article_id", uint64(article.ID)), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update article failed"})
		return
	}

	metrics.AdminActionsTotal.WithLabelValues(model.ActionUpdate).Inc()
	s.db.Preload("Category").Preload("Tags").First(article, article.ID)
	c.JSON(http.StatusOK, newArticleDetail(article, false))
}

// handleDeleteArticle 删除文章。
//
// 收藏随之删除，历史审计日志保留但文章引用置空；
// 删除动作本身的审计日志在文章行删除前写入。
func (s *Server) handleDeleteArticle(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	article, ok := s.loadArticle(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", article.ID).Delete(&model.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.AdminLog{}).
			Where("article_id = ?", article.ID).
			Update("article_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(article).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := writeAdminLog(tx, admin.ID, model.ActionDelete, nil,
			fmt.Sprintf("Deleted article: %s", article.Title)); err != nil {
			return err
		}
		return tx.Delete(article).Error
	})
	if err != nil {
		s.logger.Error("delete article failed", slog.Uint64("article_id", uint64(article.ID)), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete article failed"})
		return
	}

	metrics.AdminActionsTotal.WithLabelValues(model.ActionDelete).Inc()
	c.JSON(http.StatusOK, gin.H{"message": "article deleted"})
}

// loadArticle 从路径参数取出文章，找不到时写好响应并返回 false。
func (s *Server) loadArticle(c *gin.Context) (*model.Article, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return nil, false
	}

	var article model.Article
	err = s.db.Preload("Category").Preload("Tags").First(&article, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query article failed"})
		}
		return nil, false
	}
	return &article, true
}

// bookmarkedSet 返回当前用户收藏过的文章 ID 集合。
func (s *Server) bookmarkedSet(c *gin.Context, articles []model.Article) (map[uint]bool, error) {
	out := make(map[uint]bool)
	user, ok := middleware.CurrentUser(c)
	if !ok || len(articles) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(articles))
	for i := range articles {
		ids = append(ids, articles[i].ID)
	}

	var marked []uint
	err := s.db.Model(&model.Bookmark{}).
		Where("user_id = ? AND article_id IN ?", user.ID, ids).
		Pluck("article_id", &marked).Error
	if err != nil {
		return nil, err
	}
	for _, id := range marked {
		out[id] = true
	}
	return out, nil
}

func (s *Server) categoryExists(id uint) (bool, error) {
	var count int64
	if err := s.db.Model(&model.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolveTags 把标签 ID 列表解析成实体，不存在的 ID 直接丢弃。
func (s *Server) resolveTags(ids []uint) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	if err := s.db.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func writeAdminLog(tx *gorm.DB, adminID uint, action string, articleID *uint, description string) error {
	entry := model.AdminLog{
		AdminUserID: adminID,
		ActionType:  action,
		ArticleID:   articleID,
		Description: description,
	}
	return tx.Create(&entry).Error
}

// parseDateParam 接受 RFC3339 时间戳或纯日期两种格式。
func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
