package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/naka-gawa/github-devstats/internal/domain"
)

// WriteSummary renders the summary as plain text with the top n languages.
func WriteSummary(w io.Writer, s *domain.Summary, n int) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	p.Fprintf(tw, "Developers:\t%d\n", s.TotalDevelopers)
	p.Fprintf(tw, "Repositories:\t%d\n", s.TotalRepositories)
	p.Fprintf(tw, "Stars:\t%d\n", s.TotalStars)
	p.Fprintf(tw, "Average repositories per developer:\t%.1f\n", s.AvgReposPerDeveloper)
	p.Fprintf(tw, "Average followers per developer:\t%.1f\n", s.AvgFollowersPerDeveloper)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	top := s.TopLanguages(n)
	if len(top) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\nTop %d languages:\n", len(top))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tLanguage\tRepositories")
	for i, l := range top {
		p.Fprintf(tw, "%d\t%s\t%d\n", i+1, l.Language, l.Repositories)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// WriteInsights renders the secondary findings as plain text.
func WriteInsights(w io.Writer, in *domain.Insights) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value any
	}{
		{"Top developers by followers", in.TopByFollowers},
		{"Earliest registered", in.EarliestRegistered},
		{"Top licenses", in.TopLicenses},
		{"Most common company", in.MostCommonCompany},
		{"Most popular language", in.MostPopularLanguage},
		{"Second language (registered after 2020)", in.SecondLanguageSince2021},
		{"Language with highest average stars", in.TopLanguageByAvgStars},
		{"Top leaders (followers / (1 + following))", in.TopLeaders},
		{"Correlation followers / public repos", fmt.Sprintf("%.3f", in.FollowersReposCorrelation)},
		{"Followers per additional repo", fmt.Sprintf("%.3f", in.FollowersPerRepoSlope)},
		{"Correlation projects / wiki", fmt.Sprintf("%.3f", in.ProjectsWikiCorrelation)},
		{"Following difference (hireable - others)", fmt.Sprintf("%.3f", in.HireableFollowingDiff)},
		{"Followers per bio character", fmt.Sprintf("%.3f", in.BioLengthSlope)},
		{"Most weekend repositories", in.TopWeekendCreators},
		{"Email share difference (hireable - others)", fmt.Sprintf("%.3f", in.HireableEmailDiff)},
		{"Most common surnames", fmt.Sprintf("%v (%d)", in.CommonSurnames, in.CommonSurnameCount)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%v\n", r.label, r.value)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write insights: %w", err)
	}
	return nil
}
