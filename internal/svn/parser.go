package svn

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/models"
)

const diffSeparator = "Index: "

type xmlLog struct {
	Entries []xmlLogEntry `xml:"logentry"`
}

type xmlLogEntry struct {
	Revision string    `xml:"revision,attr"`
	Author   *string   `xml:"author"`
	Date     *string   `xml:"date"`
	Msg      string    `xml:"msg"`
	Paths    []xmlPath `xml:"paths>path"`
}

type xmlPath struct {
	Action       string `xml:"action,attr"`
	CopyFromPath string `xml:"copyfrom-path,attr"`
	CopyFromRev  string `xml:"copyfrom-rev,attr"`
	Path         string `xml:",chardata"`
}

type xmlInfo struct {
	Entries []xmlInfoEntry `xml:"entry"`
}

type xmlInfoEntry struct {
	Revision string `xml:"revision,attr"`
	URL      string `xml:"url"`
	UUID     string `xml:"repository>uuid"`
}

// ParseLog normalizes `svn log --xml [-v]` output. Entries without a usable revision
// are dropped. A missing author becomes "unknown"; a missing date becomes now.
func ParseLog(data []byte, now time.Time) ([]models.CommitDetail, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw xmlLog
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, errors.ErrInvalidPayload.WithError(err)
	}

	out := make([]models.CommitDetail, 0, len(raw.Entries))
	for _, e := range raw.Entries {
		rev, err := strconv.ParseInt(strings.TrimSpace(e.Revision), 10, 64)
		if err != nil || rev <= 0 {
			continue
		}

		detail := models.CommitDetail{
			Commit: models.Commit{
				Revision: rev,
				Author:   "unknown",
				Date:     now,
				Message:  e.Msg,
			},
			Files: make([]models.FileChange, 0, len(e.Paths)),
		}
		if e.Author != nil && *e.Author != "" {
			detail.Author = *e.Author
		}
		if e.Date != nil {
			if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*e.Date)); err == nil {
				detail.Date = t.UTC()
			}
		}

		for _, p := range e.Paths {
			change := models.FileChange{
				Path:   strings.TrimSpace(p.Path),
				Action: models.FileAction(p.Action),
			}
			if p.CopyFromPath != "" {
				change.CopyFromPath = p.CopyFromPath
				change.CopyFromRevision, _ = strconv.ParseInt(p.CopyFromRev, 10, 64)
			}
			detail.Files = append(detail.Files, change)
		}

		out = append(out, detail)
	}

	return out, nil
}

// ParseInfo normalizes `svn info --xml` output. fallbackURL is used when the payload
// carries no URL.
func ParseInfo(data []byte, fallbackURL string) (*models.RepositoryInfo, error) {
	info := &models.RepositoryInfo{URL: fallbackURL}
	if len(bytes.TrimSpace(data)) == 0 {
		return info, nil
	}

	var raw xmlInfo
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, errors.ErrInvalidPayload.WithError(err)
	}
	if len(raw.Entries) == 0 {
		return info, nil
	}

	entry := raw.Entries[0]
	if entry.URL != "" {
		info.URL = entry.URL
	}
	info.UUID = entry.UUID
	if rev, err := strconv.ParseInt(entry.Revision, 10, 64); err == nil {
		info.Revision = rev
	}

	return info, nil
}

// SplitDiff breaks a repository-wide diff into per-path blocks on the "Index: "
// separator. Blank blocks are dropped; the path is the first line of each block.
func SplitDiff(text string) []models.Diff {
	diffs := make([]models.Diff, 0)
	for _, block := range strings.Split(text, diffSeparator) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		path, _, _ := strings.Cut(block, "\n")
		adds, dels := diffStats(block)
		diffs = append(diffs, models.Diff{
			Path:      strings.TrimSpace(path),
			Diff:      block,
			Additions: adds,
			Deletions: dels,
		})
	}
	return diffs
}

// JoinDiffs rebuilds the repository-wide diff text from per-path blocks.
func JoinDiffs(diffs []models.Diff) string {
	var sb strings.Builder
	for _, d := range diffs {
		sb.WriteString(diffSeparator)
		sb.WriteString(d.Diff)
	}
	return sb.String()
}
