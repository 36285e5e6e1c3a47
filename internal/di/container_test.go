package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/services"
	"github.com/thomas-vilte/svnreview/internal/svn"
)

type fakeExecutor struct {
	out map[string][]byte
}

func (f *fakeExecutor) Execute(_ context.Context, cmd svn.Command) ([]byte, error) {
	return f.out[cmd.Name], nil
}

const logXML = `<?xml version="1.0"?>
<log>
<logentry revision="7">
<author>ana</author>
<date>2024-05-01T10:00:00.000000Z</date>
<paths><path action="M" kind="file">/trunk/main.go</path></paths>
<msg>fix nil check</msg>
</logentry>
</log>`

const diffText = "Index: trunk/main.go\n===================================================================\n--- trunk/main.go\t(revision 6)\n+++ trunk/main.go\t(revision 7)\n@@ -1 +1 @@\n-a\n+b\n"

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.AI.UseMock = true
	cfg.AI.MockDelayMs = 0
	cfg.Store.Driver = config.StoreMemory
	cfg.SVN.URL = "svn://example.com/repo"
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	trans, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	c := NewContainer(cfg, trans, WithExecutor(&fakeExecutor{
		out: map[string][]byte{"log": []byte(logXML), "diff": []byte(diffText)},
	}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestContainer_ReturnsSameInstances(t *testing.T) {
	c := newTestContainer(t, testConfig())
	ctx := context.Background()

	s1, err := c.Store()
	require.NoError(t, err)
	s2, err := c.Store()
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	r1, err := c.ReviewService(ctx)
	require.NoError(t, err)
	r2, err := c.ReviewService(ctx)
	require.NoError(t, err)
	assert.Same(t, r1, r2)

	assert.Same(t, c.Limiter(), c.Limiter())
	assert.Equal(t, 10, c.Limiter().MaxRequests())
}

func TestContainer_SVNServiceRequiresURL(t *testing.T) {
	cfg := testConfig()
	cfg.SVN.URL = ""
	c := newTestContainer(t, cfg)

	_, err := c.SVNService()
	assert.ErrorIs(t, err, errors.ErrRepositoryURLMissing)

	_, err = c.ReviewService(context.Background())
	assert.ErrorIs(t, err, errors.ErrRepositoryURLMissing)
}

func TestContainer_ReviewEndToEnd(t *testing.T) {
	c := newTestContainer(t, testConfig())
	ctx := context.Background()

	reviews, err := c.ReviewService(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mock", reviews.Provider().Name())

	id, err := reviews.ReviewCommits(ctx, []string{"7"})
	require.NoError(t, err)

	session, err := reviews.GetReviewSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", string(session.Status))
	assert.NotEmpty(t, session.Findings)
	for _, f := range session.Findings {
		assert.Equal(t, "7", f.CommitID)
	}
}

func TestContainer_CatalogSharesStore(t *testing.T) {
	c := newTestContainer(t, testConfig())
	ctx := context.Background()

	catalog, err := c.CatalogService()
	require.NoError(t, err)
	_, err = catalog.CreateRule(ctx, services.NewRule{Name: "no-panics", Rule: "Never call panic"})
	require.NoError(t, err)

	st, err := c.Store()
	require.NoError(t, err)
	rules, err := st.ListEnabledRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "no-panics", rules[0].Name)
}

func TestContainer_CloseWithoutStore(t *testing.T) {
	c := newTestContainer(t, testConfig())
	assert.NoError(t, c.Close())
}

func TestContainer_SessionsWithoutRepository(t *testing.T) {
	cfg := testConfig()
	cfg.SVN.URL = ""
	c := newTestContainer(t, cfg)

	reader, err := c.Sessions()
	require.NoError(t, err)

	sessions, err := reader.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
