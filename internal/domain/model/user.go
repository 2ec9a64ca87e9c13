package model

// AnonymousViewer is the viewer id used for reads on behalf of a visitor who
// is not logged in. Storage never assigns it to a user.
const AnonymousViewer int64 = 0

type User struct {
	ID                 int64   `json:"id"`
	Username           string  `json:"username"`
	PasswordHash       string  `json:"-"` // Not exposed
	RequireNewPassword bool    `json:"require_new_password"`
	IsAdmin            bool    `json:"is_admin"`
	Profile            Profile `json:"profile"`
}

// UserEditable carries the replaceable columns of a user row.
type UserEditable struct {
	Username           string
	PasswordHash       string
	RequireNewPassword bool
}

// Editable returns the user's current values, ready to be modified.
func (u *User) Editable() UserEditable {
	return UserEditable{
		Username:           u.Username,
		PasswordHash:       u.PasswordHash,
		RequireNewPassword: u.RequireNewPassword,
	}
}

// UserSummary is the search-result projection of a user.
type UserSummary struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	IsAdmin      bool   `json:"is_admin"`
	ImageAssetID *int64 `json:"image_asset_id,omitempty"`
}

type Profile struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Description   string `json:"description"`
	ImageAssetID  *int64 `json:"image_asset_id,omitempty"`
	BannerAssetID *int64 `json:"banner_asset_id,omitempty"`
}

type ProfileEditable struct {
	Description   string
	ImageAssetID  *int64
	BannerAssetID *int64
}
