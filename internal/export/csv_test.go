package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-devstats/internal/domain"
)

func fixtureDevelopers() []*domain.Developer {
	return []*domain.Developer{
		{
			Login: "alice", Name: "Alice Example", Company: "ACME", Location: "Berlin",
			Email: "alice@example.com", Hireable: true, Bio: "likes, commas", PublicRepos: 2,
			Followers: 512, Following: 3, CreatedAt: time.Date(2010, 1, 2, 3, 4, 5, 0, time.UTC),
			Repositories: []domain.Repository{
				{Owner: "alice", FullName: "alice/one", CreatedAt: time.Date(2020, 5, 2, 10, 0, 0, 0, time.UTC),
					Stars: 10, Watchers: 10, Language: "Go", HasProjects: true, License: "mit"},
				{Owner: "alice", FullName: "alice/two", CreatedAt: time.Date(2021, 6, 5, 10, 0, 0, 0, time.UTC),
					HasWiki: true},
			},
		},
		{
			Login: "bob", Location: "Berlin, Germany", Followers: 201,
			CreatedAt:    time.Date(2015, 7, 8, 0, 0, 0, 0, time.UTC),
			Repositories: []domain.Repository{},
		},
	}
}

func TestWriteUsers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUsers(&buf, fixtureDevelopers()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "login,name,company,location,email,hireable,bio,public_repos,followers,following,created_at,repository_count", lines[0])
	assert.Equal(t, `alice,Alice Example,ACME,Berlin,alice@example.com,true,"likes, commas",2,512,3,2010-01-02T03:04:05Z,2`, lines[1])
	assert.Equal(t, `bob,,,"Berlin, Germany",,false,,0,201,0,2015-07-08T00:00:00Z,0`, lines[2])
}

func TestWriteRepositories(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRepositories(&buf, fixtureDevelopers()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "login,full_name,created_at,stargazers_count,watchers_count,language,has_projects,has_wiki,license_name", lines[0])
	assert.Equal(t, "alice,alice/one,2020-05-02T10:00:00Z,10,10,Go,true,false,mit", lines[1])
	assert.Equal(t, "alice,alice/two,2021-06-05T10:00:00Z,0,0,,false,true,", lines[2])
}

func TestReadDevelopers_RoundTrip(t *testing.T) {
	developers := fixtureDevelopers()
	var users, repos bytes.Buffer
	require.NoError(t, WriteUsers(&users, developers))
	require.NoError(t, WriteRepositories(&repos, developers))

	loaded, err := ReadDevelopers(&users, &repos)

	require.NoError(t, err)
	assert.Equal(t, developers, loaded)
}

func TestReadDevelopers_OrphanRepository(t *testing.T) {
	users := strings.NewReader("login,name,company,location,email,hireable,bio,public_repos,followers,following,created_at,repository_count\n" +
		"alice,,,Berlin,,false,,0,300,0,,0\n")
	repos := strings.NewReader("login,full_name,created_at,stargazers_count,watchers_count,language,has_projects,has_wiki,license_name\n" +
		"mallory,mallory/x,,0,0,Go,false,false,\n")

	_, err := ReadDevelopers(users, repos)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to unknown user mallory")
}

func TestReadDevelopers_BadTimestamp(t *testing.T) {
	users := strings.NewReader("login,name,company,location,email,hireable,bio,public_repos,followers,following,created_at,repository_count\n" +
		"alice,,,Berlin,,false,,0,300,0,yesterday,0\n")
	repos := strings.NewReader("login,full_name,created_at,stargazers_count,watchers_count,language,has_projects,has_wiki,license_name\n")

	_, err := ReadDevelopers(users, repos)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse created_at of user alice")
}

func TestWriteDirAndLoadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	developers := fixtureDevelopers()
	summary := &domain.Summary{TotalDevelopers: 2, TotalRepositories: 2, Languages: []domain.LanguageCount{{Language: "Go", Repositories: 1}}}

	require.NoError(t, WriteDir(dir, developers, summary, 5))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{UsersFile, RepositoriesFile, SummaryFile}, names)

	loaded, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, developers, loaded)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open users file")
}
