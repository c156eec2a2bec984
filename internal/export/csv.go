// Package export writes collected developers to CSV files and a text summary,
// and reads the CSV files back.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/naka-gawa/github-devstats/internal/domain"
)

const (
	UsersFile        = "users.csv"
	RepositoriesFile = "repositories.csv"
	SummaryFile      = "summary.txt"
)

// userRow is one line of users.csv.
type userRow struct {
	Login           string `csv:"login"`
	Name            string `csv:"name"`
	Company         string `csv:"company"`
	Location        string `csv:"location"`
	Email           string `csv:"email"`
	Hireable        bool   `csv:"hireable"`
	Bio             string `csv:"bio"`
	PublicRepos     int    `csv:"public_repos"`
	Followers       int    `csv:"followers"`
	Following       int    `csv:"following"`
	CreatedAt       string `csv:"created_at"`
	RepositoryCount int    `csv:"repository_count"`
}

// repositoryRow is one line of repositories.csv.
type repositoryRow struct {
	Login       string `csv:"login"`
	FullName    string `csv:"full_name"`
	CreatedAt   string `csv:"created_at"`
	Stars       int    `csv:"stargazers_count"`
	Watchers    int    `csv:"watchers_count"`
	Language    string `csv:"language"`
	HasProjects bool   `csv:"has_projects"`
	HasWiki     bool   `csv:"has_wiki"`
	License     string `csv:"license_name"`
}

// WriteUsers writes one row per developer.
func WriteUsers(w io.Writer, developers []*domain.Developer) error {
	rows := make([]*userRow, 0, len(developers))
	for _, d := range developers {
		rows = append(rows, &userRow{
			Login:           d.Login,
			Name:            d.Name,
			Company:         d.Company,
			Location:        d.Location,
			Email:           d.Email,
			Hireable:        d.Hireable,
			Bio:             d.Bio,
			PublicRepos:     d.PublicRepos,
			Followers:       d.Followers,
			Following:       d.Following,
			CreatedAt:       formatTime(d.CreatedAt),
			RepositoryCount: len(d.Repositories),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	return nil
}

// WriteRepositories writes one row per repository, grouped by owner.
func WriteRepositories(w io.Writer, developers []*domain.Developer) error {
	rows := []*repositoryRow{}
	for _, d := range developers {
		for _, r := range d.Repositories {
			rows = append(rows, &repositoryRow{
				Login:       d.Login,
				FullName:    r.FullName,
				CreatedAt:   formatTime(r.CreatedAt),
				Stars:       r.Stars,
				Watchers:    r.Watchers,
				Language:    r.Language,
				HasProjects: r.HasProjects,
				HasWiki:     r.HasWiki,
				License:     r.License,
			})
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write repositories: %w", err)
	}
	return nil
}

// ReadDevelopers parses users.csv and repositories.csv and attaches every repository
// to its owner. A repository whose owner is missing from users is an error.
func ReadDevelopers(users, repositories io.Reader) ([]*domain.Developer, error) {
	var userRows []*userRow
	if err := gocsv.Unmarshal(users, &userRows); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	var repoRows []*repositoryRow
	if err := gocsv.Unmarshal(repositories, &repoRows); err != nil {
		return nil, fmt.Errorf("failed to read repositories: %w", err)
	}

	developers := make([]*domain.Developer, 0, len(userRows))
	byLogin := make(map[string]*domain.Developer, len(userRows))
	for _, row := range userRows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at of user %s: %w", row.Login, err)
		}
		if _, dup := byLogin[row.Login]; dup {
			return nil, fmt.Errorf("duplicate user %s in %s", row.Login, UsersFile)
		}
		d := &domain.Developer{
			Login:        row.Login,
			Name:         row.Name,
			Company:      row.Company,
			Location:     row.Location,
			Email:        row.Email,
			Hireable:     row.Hireable,
			Bio:          row.Bio,
			PublicRepos:  row.PublicRepos,
			Followers:    row.Followers,
			Following:    row.Following,
			CreatedAt:    createdAt,
			Repositories: []domain.Repository{},
		}
		developers = append(developers, d)
		byLogin[d.Login] = d
	}

	for _, row := range repoRows {
		owner, ok := byLogin[row.Login]
		if !ok {
			return nil, fmt.Errorf("repository %s belongs to unknown user %s", row.FullName, row.Login)
		}
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at of repository %s: %w", row.FullName, err)
		}
		owner.Repositories = append(owner.Repositories, domain.Repository{
			Owner:       row.Login,
			FullName:    row.FullName,
			CreatedAt:   createdAt,
			Stars:       row.Stars,
			Watchers:    row.Watchers,
			Language:    row.Language,
			HasProjects: row.HasProjects,
			HasWiki:     row.HasWiki,
			License:     row.License,
		})
	}
	return developers, nil
}

// WriteDir writes users.csv, repositories.csv and summary.txt into dir.
// Each file is replaced atomically.
func WriteDir(dir string, developers []*domain.Developer, summary *domain.Summary, topLanguages int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{UsersFile, func(w io.Writer) error { return WriteUsers(w, developers) }},
		{RepositoriesFile, func(w io.Writer) error { return WriteRepositories(w, developers) }},
		{SummaryFile, func(w io.Writer) error { return WriteSummary(w, summary, topLanguages) }},
	}
	for _, f := range files {
		if err := writeFileAtomic(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir reads users.csv and repositories.csv from dir.
func LoadDir(dir string) ([]*domain.Developer, error) {
	users, err := os.Open(filepath.Join(dir, UsersFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer users.Close()
	repositories, err := os.Open(filepath.Join(dir, RepositoriesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open repositories file: %w", err)
	}
	defer repositories.Close()
	return ReadDevelopers(users, repositories)
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
