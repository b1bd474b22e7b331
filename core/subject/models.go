package subject

import "github.com/pkg/errors"

type Category string

// Categories
const (
	CategoryVerrichtingen Category = "verrichtingen"
	CategoryRoeitechniek  Category = "roeitechniek"
	CategoryStuurkunst    Category = "stuurkunst"
)

var (
	AllCategories = []Category{CategoryVerrichtingen, CategoryRoeitechniek, CategoryStuurkunst}

	ErrInvalidCategory = errors.New("invalid category")
)

func (c Category) Valid() bool {
	for _, cat := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// ParseCategory validates s as a Category.
func ParseCategory(s string) (Category, error) {
	if c := Category(s); c.Valid() {
		return c, nil
	}
	return "", ErrInvalidCategory
}

// Subject is a gradable skill. Inactive subjects cannot be graded but keep their history.
type Subject struct {
	ID       int      `json:"id" db:"id"`
	Name     string   `json:"name" db:"name"`
	Category Category `json:"category" db:"category"`
	Active   bool     `json:"active" db:"active"`
}

// Test is a checkpoint a student can complete any number of times.
type Test struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type SubjectFilter struct {
	Category   Category
	ActiveOnly bool
}
