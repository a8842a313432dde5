package entity

type User struct {
	Base
	WalletAddress string `gorm:"unique"`
	Name          string `gorm:"unique"`
	Role          string `gorm:"default:USER"`
}

const (
	SuperAdminRole = "SUPER_ADMIN"
	AdminRole      = "ADMIN"
	UserRole       = "USER"
)
