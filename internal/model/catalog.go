package model

import "time"

// Category groups modules for display and tab organization
type Category struct {
	Code         string    `gorm:"type:varchar(50);primaryKey" json:"code"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	DisplayOrder int       `gorm:"not null;index" json:"display_order"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	Modules      []Module  `gorm:"foreignKey:CategoryCode;references:Code" json:"modules"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Module is a unit of application functionality that permissions are scoped to
type Module struct {
	ID           string    `gorm:"type:varchar(100);primaryKey" json:"id"` // e.g. "roles", "inventory"
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	CategoryCode string    `gorm:"type:varchar(50);not null;index" json:"category_code"`
	DisplayOrder int       `gorm:"not null" json:"display_order"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// ModulesInOrder flattens categories into catalog order: category order first, then module order within it.
// Categories are expected to be sorted already, the way the catalog repository returns them.
func ModulesInOrder(categories []Category) []Module {
	n := 0
	for _, c := range categories {
		n += len(c.Modules)
	}
	modules := make([]Module, 0, n)
	for _, c := range categories {
		modules = append(modules, c.Modules...)
	}
	return modules
}
