// Package clitest holds fixtures shared by the command tests.
package clitest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/svnreview/internal/cli/registry"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/svn"
	"github.com/urfave/cli/v3"
)

var entries = map[int]string{
	12: `<logentry revision="12"><author>bob</author><date>2024-05-03T10:00:00.000000Z</date>
<paths><path action="M" kind="file">/trunk/auth/login.go</path><path action="A" kind="file">/trunk/auth/login_test.go</path></paths>
<msg>Add login handler

Validates the password before creating the session.</msg></logentry>`,
	11: `<logentry revision="11"><author>alice</author><date>2024-05-02T10:00:00.000000Z</date>
<paths><path action="M" kind="file">/trunk/README.md</path></paths>
<msg>fix</msg></logentry>`,
	10: `<logentry revision="10"><author>alice</author><date>2024-05-01T10:00:00.000000Z</date>
<paths><path action="A" kind="dir">/trunk</path></paths>
<msg>Initial import</msg></logentry>`,
}

const LoginDiff = "Index: auth/login.go\n" +
	"===================================================================\n" +
	"--- auth/login.go\t(revision 11)\n" +
	"+++ auth/login.go\t(revision 12)\n" +
	"@@ -1,2 +1,3 @@\n" +
	" package auth\n" +
	"-func Login() {}\n" +
	"+func Login(password string) error {\n" +
	"+\treturn nil }\n"

const InfoXML = `<?xml version="1.0"?>
<info><entry kind="dir" path="." revision="12">
<url>svn://example.com/repo/trunk</url>
<repository><root>svn://example.com/repo</root><uuid>5e7d134a-54fb-0310-bd04-b611643e5c25</uuid></repository>
</entry></info>`

// Executor answers log, diff and info for a repository holding revisions 10 to 12.
type Executor struct {
	Err error
}

func (e *Executor) Execute(_ context.Context, cmd svn.Command) ([]byte, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	switch cmd.Name {
	case "info":
		return []byte(InfoXML), nil
	case "diff":
		if strings.Contains(strings.Join(cmd.Args, " "), "11:12") {
			return []byte(LoginDiff), nil
		}
		return nil, nil
	case "log":
		return []byte(logFor(cmd.Args)), nil
	}
	return nil, fmt.Errorf("unexpected command %s", cmd.Name)
}

func logFor(args []string) string {
	high, low := 12, 10
	for i, a := range args {
		if a == "-r" && i+1 < len(args) && args[i+1] != "HEAD:1" {
			_, _ = fmt.Sscanf(args[i+1], "%d:%d", &high, &low)
		}
	}

	var b strings.Builder
	b.WriteString("<log>")
	for _, rev := range []int{12, 11, 10} {
		if rev <= high && rev >= low {
			b.WriteString(entries[rev])
		}
	}
	b.WriteString("</log>")
	return b.String()
}

// Config returns a mock provider config backed by a sqlite file in a temp dir.
func Config(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.AI.UseMock = true
	cfg.AI.MockDelayMs = 0
	cfg.AI.CacheDir = filepath.Join(dir, "cache")
	cfg.SVN.URL = "svn://example.com/repo/trunk"
	cfg.Store.Driver = config.StoreSQLite
	cfg.Store.Path = filepath.Join(dir, "svnreview.db")
	return cfg
}

func Translations(t *testing.T) *i18n.Translations {
	t.Helper()
	tr, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return tr
}

// Run executes factory's command under a bare root and returns what it printed.
func Run(t *testing.T, factory registry.CommandFactory, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	return RunContext(context.Background(), t, factory, cfg, args...)
}

func RunContext(ctx context.Context, t *testing.T, factory registry.CommandFactory, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd := factory.CreateCommand(Translations(t), cfg)
	root := &cli.Command{
		Name:     "svnreview",
		Writer:   &out,
		Commands: []*cli.Command{cmd},
	}
	err := root.Run(ctx, append([]string{"svnreview", cmd.Name}, args...))
	return out.String(), err
}
