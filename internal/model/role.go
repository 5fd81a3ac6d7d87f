package model

// Role represents user roles in the system. Rank orders roles so checks like
// "manager or above" are a single comparison.
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, MANAGER, STAFF
	Name        string `gorm:"type:varchar(100)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Rank        int    `gorm:"not null;default:0" json:"rank"`
}

// Role codes as constants
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
)

var roleRanks = map[string]int{
	RoleStaff:   10,
	RoleManager: 20,
	RoleAdmin:   30,
}

// RoleAtLeast reports whether role ranks at or above minimum. Unknown roles rank below everything.
func RoleAtLeast(role, minimum string) bool {
	have, ok := roleRanks[role]
	if !ok {
		return false
	}
	return have >= roleRanks[minimum]
}

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full system access",
		Rank:        roleRanks[RoleAdmin],
	},
	{
		Code:        RoleManager,
		Name:        "Production Manager",
		Description: "Manages batches, QC and inventory movements",
		Rank:        roleRanks[RoleManager],
	},
	{
		Code:        RoleStaff,
		Name:        "Staff",
		Description: "Read-only access to production and stock",
		Rank:        roleRanks[RoleStaff],
	},
}
