package usecase

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-devstats/internal/domain"
)

const (
	topUsers    = 5
	topLicenses = 3
	// Developers who registered after this year form the "recent" cohort.
	recentCohortAfterYear = 2020
)

// Analyze computes the secondary findings over the collection.
// Values that cannot be computed from the data are left at their zero value.
func (a *Aggregator) Analyze(developers []*domain.Developer) *domain.Insights {
	in := &domain.Insights{
		TopByFollowers: topLogins(developers, topUsers, func(d *domain.Developer) float64 {
			return float64(d.Followers)
		}),
		EarliestRegistered: topLogins(developers, topUsers, func(d *domain.Developer) float64 {
			if d.CreatedAt.IsZero() {
				return math.Inf(-1)
			}
			return -float64(d.CreatedAt.Unix())
		}),
		TopLeaders: topLogins(developers, topUsers, leaderStrength),
	}

	licenses := newCounter()
	companies := newCounter()
	languages := newCounter()
	recentLanguages := newCounter()
	weekend := newCounter()
	surnames := newCounter()
	starsByLanguage := map[string]float64{}

	var followers, publicRepos, projects, wikis stats.Float64Data
	var bioLengths, bioFollowers stats.Float64Data
	var hireFollowing, otherFollowing stats.Float64Data
	var hireEmail, otherEmail stats.Float64Data

	for _, dev := range developers {
		followers = append(followers, float64(dev.Followers))
		publicRepos = append(publicRepos, float64(dev.PublicRepos))
		if dev.Company != "" {
			companies.add(dev.Company)
		}
		if s := domain.Surname(dev.Name); s != "" {
			surnames.add(s)
		}
		if n := utf8.RuneCountInString(dev.Bio); n > 0 {
			bioLengths = append(bioLengths, float64(n))
			bioFollowers = append(bioFollowers, float64(dev.Followers))
		}
		if dev.Hireable {
			hireFollowing = append(hireFollowing, float64(dev.Following))
			hireEmail = append(hireEmail, boolFloat(dev.Email != ""))
		} else {
			otherFollowing = append(otherFollowing, float64(dev.Following))
			otherEmail = append(otherEmail, boolFloat(dev.Email != ""))
		}
		recent := dev.CreatedAt.Year() > recentCohortAfterYear

		for _, repo := range dev.Repositories {
			if repo.License != "" {
				licenses.add(repo.License)
			}
			if repo.HasLanguage() {
				languages.add(repo.Language)
				starsByLanguage[repo.Language] += float64(repo.Stars)
				if recent {
					recentLanguages.add(repo.Language)
				}
			}
			if isWeekend(repo.CreatedAt) {
				weekend.add(repo.Owner)
			}
			projects = append(projects, boolFloat(repo.HasProjects))
			wikis = append(wikis, boolFloat(repo.HasWiki))
		}
	}

	in.TopLicenses = licenses.topKeys(topLicenses)
	in.TopWeekendCreators = weekend.topKeys(topUsers)
	if top := companies.topKeys(1); len(top) > 0 {
		in.MostCommonCompany = top[0]
	}
	if top := languages.topKeys(1); len(top) > 0 {
		in.MostPopularLanguage = top[0]
	}
	if top := recentLanguages.topKeys(2); len(top) > 1 {
		in.SecondLanguageSince2021 = top[1]
	}
	in.TopLanguageByAvgStars = topByAverage(languages, starsByLanguage)

	in.FollowersReposCorrelation = correlation(followers, publicRepos)
	in.FollowersPerRepoSlope = regressionSlope(publicRepos, followers)
	in.ProjectsWikiCorrelation = correlation(projects, wikis)
	in.BioLengthSlope = regressionSlope(bioLengths, bioFollowers)
	if len(hireFollowing) > 0 && len(otherFollowing) > 0 {
		in.HireableFollowingDiff = mean(hireFollowing) - mean(otherFollowing)
		in.HireableEmailDiff = mean(hireEmail) - mean(otherEmail)
	}

	in.CommonSurnames = []string{}
	if ranked := surnames.ranked(); len(ranked) > 0 {
		in.CommonSurnameCount = ranked[0].count
		for _, e := range ranked {
			if e.count != in.CommonSurnameCount {
				break
			}
			in.CommonSurnames = append(in.CommonSurnames, e.key)
		}
		sort.Strings(in.CommonSurnames)
	}

	a.logger.Debug("analysis complete")
	return in
}

// leaderStrength relates followers to the number of accounts a developer follows.
func leaderStrength(d *domain.Developer) float64 {
	return float64(d.Followers) / float64(1+d.Following)
}

// topLogins returns the n logins with the highest score; ties keep input order.
func topLogins(developers []*domain.Developer, n int, score func(*domain.Developer) float64) []string {
	sorted := make([]*domain.Developer, len(developers))
	copy(sorted, developers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i]) > score(sorted[j])
	})
	logins := []string{}
	for _, d := range sorted {
		if len(logins) == n {
			break
		}
		logins = append(logins, d.Login)
	}
	return logins
}

// topByAverage returns the key with the highest sums[key]/count; ties keep first-seen order.
func topByAverage(c *counter, sums map[string]float64) string {
	best, bestAvg := "", math.Inf(-1)
	for _, e := range c.entries {
		if avg := sums[e.key] / float64(e.count); avg > bestAvg {
			best, bestAvg = e.key, avg
		}
	}
	return best
}

func isWeekend(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func mean(data stats.Float64Data) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

func correlation(x, y stats.Float64Data) float64 {
	if len(x) < 2 {
		return 0
	}
	r, err := stats.Correlation(x, y)
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return r
}

// regressionSlope is the least-squares slope of y on x.
func regressionSlope(x, y stats.Float64Data) float64 {
	if len(x) < 2 {
		return 0
	}
	variance, err := stats.SampleVariance(x)
	if err != nil || variance == 0 {
		return 0
	}
	cov, err := stats.Covariance(x, y)
	if err != nil {
		return 0
	}
	return cov / variance
}
