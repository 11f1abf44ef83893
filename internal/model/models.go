package model

import "time"

// 审计日志动作类型。
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Article 表示一篇新闻文章。
//
// 文章必须属于一个分类，可以关联多个标签（通过 article_tags 表）。
// AuthorName 是展示用的作者名，不是 User 的外键。
type Article struct {
	ID        uint      `gorm:"primaryKey"` // 文章唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	Title      string   `gorm:"type:varchar(255);not null;index"` // 标题
	Content    string   `gorm:"type:text;not null"`               // 正文
	CategoryID uint     `gorm:"not null;index"`                   // 所属分类 ID
	Category   Category `gorm:"foreignKey:CategoryID"`            // 所属分类
	ImageURL   string   `gorm:"type:varchar(500)"`                // 配图链接（可选）
	AuthorName string   `gorm:"type:varchar(100);not null"`       // 作者展示名
	SourceURL  string   `gorm:"type:varchar(500)"`                // 来源链接（可选）

	PublishedDate time.Time `gorm:"not null;index"` // 发布时间（业务时间，区别于 CreatedAt）

	Tags      []Tag      `gorm:"many2many:article_tags"` // 关联标签
	Bookmarks []Bookmark `gorm:"foreignKey:ArticleID"`   // 收藏记录（随文章删除）
	AdminLogs []AdminLog `gorm:"foreignKey:ArticleID"`   // 审计日志（弱引用，文章删除后置空）
}

// Category 表示文章分类。存在文章引用时不可删除。
type Category struct {
	ID   uint   `gorm:"primaryKey"`                             // 分类 ID
	Name string `gorm:"type:varchar(100);uniqueIndex;not null"` // 名称（唯一）
	Slug string `gorm:"type:varchar(100);uniqueIndex;not null"` // URL 标识（唯一）

	Articles []Article `gorm:"foreignKey:CategoryID"`
}

// Tag 表示文章标签。
type Tag struct {
	ID   uint   `gorm:"primaryKey"`                             // 标签 ID
	Name string `gorm:"type:varchar(100);uniqueIndex;not null"` // 名称（唯一）
	Slug string `gorm:"type:varchar(100);uniqueIndex;not null"` // URL 标识（唯一）

	Articles []Article `gorm:"many2many:article_tags"`
}

// Bookmark 表示用户对文章的收藏，(user, article) 组合唯一。
type Bookmark struct {
	ID        uint      `gorm:"primaryKey"`                               // 收藏 ID
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_user_article"`   // 用户 ID
	ArticleID uint      `gorm:"not null;uniqueIndex:uidx_user_article"`   // 文章 ID
	CreatedAt time.Time // 收藏时间

	User    User    `gorm:"foreignKey:UserID"`
	Article Article `gorm:"foreignKey:ArticleID"`
}

// AdminLog 表示一条管理员操作审计记录。
//
// 只追加不修改。ArticleID 是弱引用：文章删除后该字段被置空，
// 日志本身保留。
type AdminLog struct {
	ID          uint      `gorm:"primaryKey"`                 // 日志 ID
	AdminUserID uint      `gorm:"not null;index"`             // 操作管理员 ID
	ActionType  string    `gorm:"type:varchar(16);not null"`  // CREATE / UPDATE / DELETE
	ArticleID   *uint     `gorm:"index"`                      // 关联文章 ID（可空）
	Description string    `gorm:"type:text"`                  // 操作描述
	CreatedAt   time.Time `gorm:"index"`                      // 操作时间

	AdminUser User `gorm:"foreignKey:AdminUserID"`
}
