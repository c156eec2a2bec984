package domain

// LanguageCount is one row of the language frequency ranking.
type LanguageCount struct {
	Language     string `json:"language"`
	Repositories int    `json:"repositories"`
}

// Summary holds the aggregate figures computed over a collection of developers.
// It is always derived from the collection and never updated in place.
type Summary struct {
	TotalDevelopers          int             `json:"total_developers"`
	TotalRepositories        int             `json:"total_repositories"`
	TotalStars               int             `json:"total_stars"`
	AvgReposPerDeveloper     float64         `json:"avg_repos_per_developer"`
	AvgFollowersPerDeveloper float64         `json:"avg_followers_per_developer"`
	Languages                []LanguageCount `json:"languages"`
}

// TopLanguages returns at most n entries from the head of the ranking.
func (s *Summary) TopLanguages(n int) []LanguageCount {
	if n <= 0 || n >= len(s.Languages) {
		return s.Languages
	}
	return s.Languages[:n]
}

// Insights are the secondary findings reported by `analyze --insights`.
type Insights struct {
	TopByFollowers            []string `json:"top_by_followers"`
	EarliestRegistered        []string `json:"earliest_registered"`
	TopLicenses               []string `json:"top_licenses"`
	MostCommonCompany         string   `json:"most_common_company"`
	MostPopularLanguage       string   `json:"most_popular_language"`
	SecondLanguageSince2021   string   `json:"second_language_since_2021"`
	TopLanguageByAvgStars     string   `json:"top_language_by_avg_stars"`
	TopLeaders                []string `json:"top_leaders"`
	FollowersReposCorrelation float64  `json:"followers_repos_correlation"`
	FollowersPerRepoSlope     float64  `json:"followers_per_repo_slope"`
	ProjectsWikiCorrelation   float64  `json:"projects_wiki_correlation"`
	HireableFollowingDiff     float64  `json:"hireable_following_diff"`
	BioLengthSlope            float64  `json:"bio_length_slope"`
	TopWeekendCreators        []string `json:"top_weekend_creators"`
	HireableEmailDiff         float64  `json:"hireable_email_diff"`
	CommonSurnames            []string `json:"common_surnames"`
	CommonSurnameCount        int      `json:"common_surname_count"`
}
