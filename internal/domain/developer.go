// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// Developer is a GitHub account that matched the location and follower filter,
// together with the repositories it owns.
type Developer struct {
	Login        string       `json:"login"`
	Name         string       `json:"name"`
	Company      string       `json:"company"`
	Location     string       `json:"location"`
	Email        string       `json:"email"`
	Hireable     bool         `json:"hireable"`
	Bio          string       `json:"bio"`
	PublicRepos  int          `json:"public_repos"`
	Followers    int          `json:"followers"`
	Following    int          `json:"following"`
	CreatedAt    time.Time    `json:"created_at"`
	Repositories []Repository `json:"repositories"`
}

// Repository is a code project owned by a Developer.
// Owner holds the owning login and is only used for lookups.
type Repository struct {
	Owner       string    `json:"owner"`
	FullName    string    `json:"full_name"`
	CreatedAt   time.Time `json:"created_at"`
	Stars       int       `json:"stargazers_count"`
	Watchers    int       `json:"watchers_count"`
	Language    string    `json:"language,omitempty"`
	HasProjects bool      `json:"has_projects"`
	HasWiki     bool      `json:"has_wiki"`
	License     string    `json:"license_name,omitempty"`
}

// HasLanguage reports whether GitHub detected a primary language for the repository.
func (r Repository) HasLanguage() bool {
	return r.Language != ""
}

// CleanCompany normalizes a company name: surrounding whitespace and a leading '@'
// are removed and the result is upper-cased.
func CleanCompany(company string) string {
	company = strings.TrimSpace(company)
	company = strings.TrimPrefix(company, "@")
	return strings.ToUpper(company)
}

// MatchesLocation reports whether a free-form profile location matches the filter.
// The match is a case-insensitive substring test, so "Berlin, Germany" matches "Berlin".
func MatchesLocation(location, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(location), strings.ToLower(strings.TrimSpace(filter)))
}

// Surname returns the last whitespace-separated word of a display name.
func Surname(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
