package domain

type Category struct {
	ID     int32           `json:"id"`
	UserID int32           `json:"userId"`
	Name   string          `json:"name"`
	Type   TransactionType `json:"type"`
	Color  string          `json:"color"`
	Icon   string          `json:"icon"`
}

const (
	DefaultCategoryColor = "#1976D2"
	DefaultCategoryIcon  = "fas fa-tag"
)

// CategoryUpdate carries the editable fields of a category; nil means unchanged
type CategoryUpdate struct {
	Name  *string
	Color *string
	Icon  *string
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID int32, id int32) (*Category, error)
	GetAllByUser(userID int32) ([]*Category, error)
	Update(userID int32, id int32, update CategoryUpdate) (*Category, error)
	Delete(userID int32, id int32) error
}
