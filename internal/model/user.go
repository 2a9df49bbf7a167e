package model

import "time"

// UserType 用户身份分类（封闭枚举）
type UserType string

const (
	UserTypeSchoolchild UserType = "schoolchild"
	UserTypeStudent     UserType = "student"
	UserTypeOther       UserType = "other"
)

// UserTypes 按展示顺序列出所有用户分类
var UserTypes = []UserType{UserTypeSchoolchild, UserTypeStudent, UserTypeOther}

// Valid 判断是否属于封闭枚举
func (t UserType) Valid() bool {
	for _, v := range UserTypes {
		if v == t {
			return true
		}
	}
	return false
}

// User 账号。Email 入库前统一转小写；Password 只保存 bcrypt 哈希。
// IsActive 没有库默认值，创建时必须显式赋值。
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string    `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"type:varchar(255);not null"`
	FullName    string    `json:"full_name" gorm:"type:varchar(255)"`
	Age         int       `json:"age"`
	Type        *UserType `json:"type" gorm:"type:varchar(20)"`
	DeviceToken *string   `json:"-" gorm:"type:varchar(255)"`
	IsVerified  bool      `json:"is_verified" gorm:"not null;default:false"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	IsStaff     bool      `json:"is_staff" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`

	Interactions   []EventInteraction `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	PasswordResets []PasswordReset    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }
