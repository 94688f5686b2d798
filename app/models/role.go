package models

type Role struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"uniqueIndex;type:varchar(50)" json:"name"`
	Users []User `gorm:"many2many:user_roles" json:"-"`
}

// UserRole is the user<->role join row. The unique index on UserID restricts
// each user to a single role at a time even though the schema is many-to-many.
type UserRole struct {
	UserID uint `gorm:"primaryKey;uniqueIndex"`
	RoleID uint `gorm:"primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
