package model

import "fmt"

// MarketplaceCandidate is one platform/account pair an item could be listed on.
type MarketplaceCandidate struct {
	Platform    string `json:"platform" yaml:"platform"`
	AccountID   string `json:"account_id" yaml:"account_id"`
	AccountName string `json:"account_name" yaml:"account_name"`
	Country     string `json:"country" yaml:"country"`
}

// Key identifies the candidate as "platform/account".
func (c MarketplaceCandidate) Key() string {
	return fmt.Sprintf("%s/%s", c.Platform, c.AccountID)
}

// Account is a seller account registered on a platform.
type Account struct {
	Platform string   `json:"platform" yaml:"platform"`
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Country  string   `json:"country" yaml:"country"`
	Channels []string `json:"channels,omitempty" yaml:"channels,omitempty"`
	Active   bool     `json:"active" yaml:"active"`
}

// Candidate converts the account into a marketplace candidate.
func (a Account) Candidate() MarketplaceCandidate {
	return MarketplaceCandidate{
		Platform:    a.Platform,
		AccountID:   a.ID,
		AccountName: a.Name,
		Country:     a.Country,
	}
}

// LockHolder names the platform/account an exclusivity lock is held by.
type LockHolder struct {
	Platform  string `json:"platform"`
	AccountID string `json:"account_id"`
}

// Matches reports whether the lock is held by candidate c.
func (h LockHolder) Matches(c MarketplaceCandidate) bool {
	return h.Platform == c.Platform && h.AccountID == c.AccountID
}

func (h LockHolder) String() string {
	return fmt.Sprintf("%s/%s", h.Platform, h.AccountID)
}
