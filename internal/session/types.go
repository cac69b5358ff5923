package session

// Session is the per-browser state kept between requests. Only the account
// override is stored; an empty Account means the provider default applies.
type Session struct {
	Account   string `json:"account,omitempty"`
	UpdatedAt int64  `json:"updatedAt"`
}
