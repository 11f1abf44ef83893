package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/richmontato/eznews2/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type categoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// handleListCategories 返回全部分类。
func (s *Server) handleListCategories(c *gin.Context) {
	var categories []model.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query categories failed"})
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, *newCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// handleCreateCategory 新建分类，slug 冲突返回 409。
func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	slug := strings.TrimSpace(req.Slug)
	if name == "" || slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and slug are required"})
		return
	}

	taken, err := s.slugTaken(&model.Category{}, slug, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query category failed"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "category slug already exists"})
		return
	}

	category := model.Category{Name: name, Slug: slug}
	if err := s.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create category failed"})
		return
	}
	c.JSON(http.StatusCreated, newCategoryResponse(&category))
}

// handleUpdateCategory 更新分类名称或 slug。
func (s *Server) handleUpdateCategory(c *gin.Context) {
	category, ok := s.loadCategory(c)
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		taken, err := s.slugTaken(&model.Category{}, slug, category.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query category failed"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"error": "category slug already exists"})
			return
		}
		category.Slug = slug
	}

	if err := s.db.Save(category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update category failed"})
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

// handleDeleteCategory 删除分类，仍有文章引用时返回 409。
func (s *Server) handleDeleteCategory(c *gin.Context) {
	category, ok := s.loadCategory(c)
	if !ok {
		return
	}

	var articleCount int64
	if err := s.db.Model(&model.Article{}).Where("category_id = ?", category.ID).Count(&articleCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count articles failed"})
		return
	}
	if articleCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "category still has articles"})
		return
	}

	if err := s.db.Delete(category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete category failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

func (s *Server) loadCategory(c *gin.Context) (*model.Category, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return nil, false
	}

	var category model.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query category failed"})
		}
		return nil, false
	}
	return &category, true
}

// slugTaken 检查 slug 是否已被其他记录占用。
func (s *Server) slugTaken(entity interface{}, slug string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(entity).Where("slug = ?", slug)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
