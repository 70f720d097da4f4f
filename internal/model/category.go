package model

// Category identifies one of the fixed sections of the directory.
type Category string

const (
	CategoryAnxiety       Category = "anxiety"
	CategoryMood          Category = "mood"
	CategoryRelationships Category = "relationships"
	CategoryParenting     Category = "parenting"
	CategoryMindfulness   Category = "mindfulness"
	CategoryGrowth        Category = "growth"
)

// CategoryInfo is the display metadata for a category. Count is filled in
// from storage when the catalogue is served.
type CategoryInfo struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
}

// Categories lists every category in display order.
var Categories = []CategoryInfo{
	{ID: CategoryAnxiety, Name: "Anxiety & Stress", Icon: "😰", Description: "Tools for managing anxiety and stress"},
	{ID: CategoryMood, Name: "Mood & Depression", Icon: "🌧️", Description: "Tools for improving mood and managing depression"},
	{ID: CategoryRelationships, Name: "Relationships", Icon: "💕", Description: "Tools for building and maintaining healthy relationships"},
	{ID: CategoryParenting, Name: "Parenting & Family", Icon: "👨‍👩‍👧‍👦", Description: "Tools for parents and family dynamics"},
	{ID: CategoryMindfulness, Name: "Mindfulness", Icon: "🧘", Description: "Mindfulness and meditation practices"},
	{ID: CategoryGrowth, Name: "Personal Growth", Icon: "✨", Description: "Tools for personal development and growth"},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, info := range Categories {
		if info.ID == c {
			return true
		}
	}
	return false
}
