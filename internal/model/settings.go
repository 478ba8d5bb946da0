package model

// DefaultLoanDays is the loan duration used when a borrower's lender type
// has no configured duration.
const DefaultLoanDays = 14

// LenderType is a borrower category with its default loan duration in days.
type LenderType struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// ReturnFilterOption is a configurable "due within N days" filter preset.
type ReturnFilterOption struct {
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// Settings holds the configurable vocabularies consumed across the catalog
// and circulation subsystems. It is loaded as a snapshot and passed
// explicitly; it is not ambient global state.
type Settings struct {
	Authors             []string             `json:"authors"`
	Categories          []string             `json:"categories"`
	Genres              []string             `json:"genres"`
	Publishers          []string             `json:"publishers"`
	Racks               []string             `json:"racks"`
	Shelves             []string             `json:"shelves"`
	WithdrawalReasons   []string             `json:"withdrawal_reasons"`
	LenderTypes         []LenderType         `json:"lender_types"`
	ReturnFilterOptions []ReturnFilterOption `json:"return_filter_options"`
}

// LoanDays returns the configured loan duration for a lender type, falling
// back to DefaultLoanDays when the type is unconfigured.
func (s *Settings) LoanDays(lenderType string) int {
	if s != nil {
		for _, t := range s.LenderTypes {
			if t.Name == lenderType {
				return t.Duration
			}
		}
	}
	return DefaultLoanDays
}

// Vocabulary keys, as stored in the settings table. The plain-list
// vocabularies hold strings; lenderTypes and returnFilterOptions hold
// structured entries and are renamed by name/label.
const (
	VocabAuthors             = "authors"
	VocabCategories          = "categories"
	VocabGenres              = "genres"
	VocabPublishers          = "publishers"
	VocabRacks               = "racks"
	VocabShelves             = "shelves"
	VocabWithdrawalReasons   = "withdrawalReasons"
	VocabLenderTypes         = "lenderTypes"
	VocabReturnFilterOptions = "returnFilterOptions"
)

// DefaultSettings returns the vocabulary values seeded into a fresh database.
func DefaultSettings() *Settings {
	return &Settings{
		Authors:           []string{},
		Categories:        []string{"Fiction", "Non-Fiction", "Reference"},
		Genres:            []string{},
		Publishers:        []string{},
		Racks:             []string{},
		Shelves:           []string{},
		WithdrawalReasons: []string{"Damaged beyond repair", "Outdated", "Lost by library", "Duplicate"},
		LenderTypes: []LenderType{
			{Name: "Student", Duration: 14},
			{Name: "Faculty", Duration: 30},
			{Name: "Management", Duration: 30},
		},
		ReturnFilterOptions: []ReturnFilterOption{
			{Label: "Due today", Days: 0},
			{Label: "Next 3 days", Days: 3},
			{Label: "Next 7 days", Days: 7},
			{Label: "Next 30 days", Days: 30},
		},
	}
}
