package model

import "time"

// 用户角色。
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 表示系统用户。
type User struct {
	ID         uint      `gorm:"primaryKey"`                    // 用户 ID
	FullName   string    `gorm:"type:varchar(100);not null"`    // 姓名
	Email      string    `gorm:"type:varchar(191);uniqueIndex"` // 邮箱（唯一）
	Password   string    `gorm:"not null"`                      // bcrypt 哈希
	Role       string    `gorm:"type:varchar(16);default:user"` // 角色: admin / user
	AvatarURL  string    `gorm:"type:varchar(500)"`             // 头像链接（可选）
	ResetToken string    `gorm:"type:varchar(255);index"`       // 密码重置令牌（一次性）
	CreatedAt  time.Time // 创建时间
	UpdatedAt  time.Time // 更新时间

	Bookmarks []Bookmark `gorm:"foreignKey:UserID"`
	AdminLogs []AdminLog `gorm:"foreignKey:AdminUserID"`
}

// IsAdmin 判断用户是否为管理员。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
