package model

// Book represents a catalog record. Physical instances are tracked as Copies.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Categories    []string `json:"categories"`
	ISBN          string   `json:"isbn"`
	Genre         string   `json:"genre"`
	Publisher     string   `json:"publisher"`
	PublishedYear string   `json:"published_year"`
	Rack          string   `json:"rack"`
	Shelf         string   `json:"shelf"`
	CallNumber    string   `json:"call_number"`
	Description   string   `json:"description,omitempty"`
	CoverMime     string   `json:"cover_mime,omitempty"`
}
