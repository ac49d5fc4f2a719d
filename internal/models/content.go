package models

// Content is a CMS page or block, keyed by its slug.
type Content struct {
	Base      `bson:",inline"`
	Title     string `bson:"title" json:"title"`
	Section   string `bson:"section" json:"section"`
	Body      string `bson:"body" json:"body"`
	Published bool   `bson:"published" json:"published"`
}

type ContentInput struct {
	Title     string `json:"title" validate:"required"`
	Section   string `json:"section"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}
