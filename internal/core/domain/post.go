package domain

// Post is a published record referencing uploaded media.
type Post struct {
	ID        string `json:"id"         db:"id"`
	Caption   string `json:"caption"    db:"caption"`
	MediaRef  string `json:"media_ref"  db:"media_ref"`
	CreatedAt uint64 `json:"created_at" db:"created_at"`
}
