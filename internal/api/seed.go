package api

import (
	"errors"
	"log/slog"

	"github.com/richmontato/eznews2/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultCategories = []model.Category{
	{Name: "Politik", Slug: "politik"},
	{Name: "Ekonomi", Slug: "ekonomi"},
	{Name: "Teknologi", Slug: "teknologi"},
	{Name: "Olahraga", Slug: "olahraga"},
	{Name: "Kesehatan", Slug: "kesehatan"},
	{Name: "Hiburan", Slug: "hiburan"},
	{Name: "Pendidikan", Slug: "pendidikan"},
}

var defaultTags = []model.Tag{
	{Name: "Breaking News", Slug: "breaking-news"},
	{Name: "Viral", Slug: "viral"},
	{Name: "Trending", Slug: "trending"},
	{Name: "Investigasi", Slug: "investigasi"},
	{Name: "Opini", Slug: "opini"},
	{Name: "Internasional", Slug: "internasional"},
	{Name: "Nasional", Slug: "nasional"},
	{Name: "Daerah", Slug: "daerah"},
}

// Seed 填充初始数据：管理员账号、默认分类与标签。
//
// 幂等：已存在的记录原样保留，可在每次启动时调用。
func (s *Server) Seed() error {
	if s.cfg.Security.AdminEmail != "" && s.cfg.Security.AdminPassword != "" {
		var existing model.User
		err := s.db.Where("email = ?", s.cfg.Security.AdminEmail).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, hashErr := bcrypt.GenerateFromPassword([]byte(s.cfg.Security.AdminPassword), bcrypt.DefaultCost)
			if hashErr != nil {
				return hashErr
			}
			admin := model.User{
				FullName: s.cfg.Security.AdminName,
				Email:    s.cfg.Security.AdminEmail,
				Password: string(hash),
				Role:     model.RoleAdmin,
			}
			if err := s.db.Create(&admin).Error; err != nil {
				return err
			}
			s.logger.Info("admin user seeded", slog.String("email", admin.Email))
		} else if err != nil {
			return err
		}
	}

	for _, cat := range defaultCategories {
		var count int64
		if err := s.db.Model(&model.Category{}).Where("slug = ?", cat.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := s.db.Create(&cat).Error; err != nil {
				return err
			}
		}
	}

	for _, tag := range defaultTags {
		var count int64
		if err := s.db.Model(&model.Tag{}).Where("slug = ?", tag.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := s.db.Create(&tag).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
