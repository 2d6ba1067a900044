package models

// AppAuthorName is shown for records posted by an app rather than a user.
const AppAuthorName = "Added by app"

// Author is the denormalized profile snapshot attached at read time.
type Author struct {
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}

// AppAuthor is the placeholder for records with no user id.
func AppAuthor() Author {
	return Author{Username: AppAuthorName, ProfileImage: DefaultProfileImage}
}

// Authored is implemented by every record that can be enriched.
type Authored interface {
	AuthorID() string
	SetAuthor(Author)
}
