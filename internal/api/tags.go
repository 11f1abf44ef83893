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

type tagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// handleListTags 返回全部标签。
func (s *Server) handleListTags(c *gin.Context) {
	var tags []model.Tag
	if err := s.db.Order("name ASC").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query tags failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": newTagResponses(tags)})
}

// handleCreateTag 新建标签，slug 冲突返回 409。
func (s *Server) handleCreateTag(c *gin.Context) {
	var req tagRequest
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

	taken, err := s.slugTaken(&model.Tag{}, slug, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query tag failed"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "tag slug already exists"})
		return
	}

	tag := model.Tag{Name: name, Slug: slug}
	if err := s.db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create tag failed"})
		return
	}
	c.JSON(http.StatusCreated, tagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
}

// handleUpdateTag 更新标签名称或 slug。
func (s *Server) handleUpdateTag(c *gin.Context) {
	tag, ok := s.loadTag(c)
	if !ok {
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		tag.Name = name
	}
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		taken, err := s.slugTaken(&model.Tag{}, slug, tag.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query tag failed"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"error": "tag slug already exists"})
			return
		}
		tag.Slug = slug
	}

	if err := s.db.Save(tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update tag failed"})
		return
	}
	c.JSON(http.StatusOK, tagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
}

// handleDeleteTag 删除标签并清理与文章的关联。
func (s *Server) handleDeleteTag(c *gin.Context) {
	tag, ok := s.loadTag(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(tag).Association("Articles").Clear(); err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete tag failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tag deleted"})
}

func (s *Server) loadTag(c *gin.Context) (*model.Tag, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag id"})
		return nil, false
	}

	var tag model.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query tag failed"})
		}
		return nil, false
	}
	return &tag, true
}
