package svn

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 20
	MaxPageSize     = 100

	// svn parses --limit as a 32-bit integer.
	maxLogLimit = math.MaxInt32
)

type Options struct {
	URL             string
	Timeout         time.Duration
	DefaultPageSize int
	MaxPageSize     int
	// Now is the clock used for entries that carry no date. Defaults to time.Now.
	Now func() time.Time
}

// Service exposes repository history over an Executor as normalized, paginated records.
type Service struct {
	exec            Executor
	url             string
	timeout         time.Duration
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

func NewService(exec Executor, opts Options) *Service {
	s := &Service{
		exec:            exec,
		url:             opts.URL,
		timeout:         opts.Timeout,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
		now:             opts.Now,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = MaxPageSize
	}
	if s.defaultPageSize <= 0 || s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = min(DefaultPageSize, s.maxPageSize)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) URL() string {
	return s.url
}

// run executes cmd racing it against the configured timeout. Once the timer fires the
// executor result is discarded; its goroutine writes into a buffered channel nobody
// reads, and the derived context is cancelled so the process is torn down.
func (s *Service) run(ctx context.Context, cmd Command) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)

	go func() {
		out, err := s.exec.Execute(ctx, cmd)
		done <- result{out: out, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, contextError(ctxErr, s.timeout)
			}
			err := classify(r.err)
			logger.Error(ctx, "svn command failed", r.err, "command", cmd.Name)
			return nil, err
		}
		return r.out, nil
	case <-timer.C:
		logger.Warn(ctx, "svn command timed out", "command", cmd.Name, "timeout_ms", s.timeout.Milliseconds())
		return nil, timeoutError(s.timeout)
	case <-ctx.Done():
		return nil, contextError(ctx.Err(), s.timeout)
	}
}

func (s *Service) normalizePagination(p models.PaginationParams) models.PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = s.defaultPageSize
	}
	if p.PageSize > s.maxPageSize {
		p.PageSize = s.maxPageSize
	}
	return p
}

// GetCommits lists commits newest first. The executor is asked for an over-fetched
// window of pageSize*page+pageSize entries; filters run over that whole window and the
// pagination metadata describes the filtered window, not the full history.
func (s *Service) GetCommits(ctx context.Context, filters models.CommitFilters, pagination models.PaginationParams) (*models.PaginatedResponse[models.Commit], error) {
	p := s.normalizePagination(pagination)

	revRange := "HEAD:1"
	if filters.StartRevision > 0 && filters.EndRevision > 0 {
		revRange = fmt.Sprintf("%d:%d", filters.EndRevision, filters.StartRevision)
	}
	limit := fetchLimit(p)

	logger.Info(ctx, "fetching commits", "range", revRange, "limit", limit, "page", p.Page)

	out, err := s.run(ctx, Command{
		Name: "log",
		URL:  s.url,
		Args: []string{"--xml", "-r", revRange, "-l", strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}

	entries, err := ParseLog(out, s.now())
	if err != nil {
		return nil, err
	}

	commits := make([]models.Commit, 0, len(entries))
	for _, e := range entries {
		commits = append(commits, e.Commit)
	}
	commits = FilterCommits(commits, filters)

	return Paginate(commits, p), nil
}

// fetchLimit is pageSize*page+pageSize, saturated at the largest limit svn accepts.
func fetchLimit(p models.PaginationParams) int {
	if p.Page >= maxLogLimit/p.PageSize-1 {
		return maxLogLimit
	}
	return p.PageSize*p.Page + p.PageSize
}

// FilterCommits applies the keyword and author filters. Keyword is a case-insensitive
// substring match on message or author; author is a case-insensitive exact match.
func FilterCommits(commits []models.Commit, filters models.CommitFilters) []models.Commit {
	keyword := strings.ToLower(strings.TrimSpace(filters.Keyword))
	author := strings.ToLower(strings.TrimSpace(filters.Author))
	if keyword == "" && author == "" {
		return commits
	}

	out := make([]models.Commit, 0, len(commits))
	for _, c := range commits {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(c.Message), keyword) &&
			!strings.Contains(strings.ToLower(c.Author), keyword) {
			continue
		}
		if author != "" && strings.ToLower(c.Author) != author {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Paginate slices items to [(page-1)*size, page*size). p must already be normalized.
func Paginate[T any](items []T, p models.PaginationParams) *models.PaginatedResponse[T] {
	total := len(items)
	start := total
	if p.Page-1 <= total/p.PageSize {
		start = min((p.Page-1)*p.PageSize, total)
	}
	end := min(start+p.PageSize, total)

	data := make([]T, end-start)
	copy(data, items[start:end])

	return &models.PaginatedResponse[T]{
		Data: data,
		Pagination: models.Pagination{
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(p.PageSize))),
		},
	}
}

func (s *Service) GetCommitDetail(ctx context.Context, revision int64) (*models.CommitDetail, error) {
	logger.Info(ctx, "fetching commit detail", "revision", revision)

	out, err := s.run(ctx, Command{
		Name: "log",
		URL:  s.url,
		Args: []string{"--xml", "-v", "-r", fmt.Sprintf("%d:%d", revision, revision)},
	})
	if err != nil {
		return nil, err
	}

	entries, err := ParseLog(out, s.now())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.ErrCommitNotFound.
			WithMessage(fmt.Sprintf("Commit not found: %d", revision)).
			WithContext("revision", revision)
	}

	return &entries[0], nil
}

// GetCommitDiff returns the per-path diff of revision against its predecessor.
func (s *Service) GetCommitDiff(ctx context.Context, revision int64) ([]models.Diff, error) {
	logger.Info(ctx, "fetching commit diff", "revision", revision)

	out, err := s.run(ctx, Command{
		Name: "diff",
		URL:  s.url,
		Args: []string{"-r", fmt.Sprintf("%d:%d", revision-1, revision)},
	})
	if err != nil {
		return nil, err
	}

	return SplitDiff(string(out)), nil
}

func (s *Service) GetRepositoryInfo(ctx context.Context) (*models.RepositoryInfo, error) {
	logger.Info(ctx, "fetching repository info")

	out, err := s.run(ctx, Command{Name: "info", URL: s.url, Args: []string{"--xml"}})
	if err != nil {
		return nil, err
	}

	return ParseInfo(out, s.url)
}

// ParseRevision accepts "123" or "r123".
func ParseRevision(id string) (int64, error) {
	raw := strings.TrimSpace(id)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "r"), "R")
	rev, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rev <= 0 {
		return 0, errors.ErrValidation.
			WithMessage(fmt.Sprintf("invalid revision %q", id)).
			WithFields(errors.FieldError{Field: "revision", Message: "must be a positive integer"})
	}
	return rev, nil
}

// ResolveCommits loads metadata and the full diff for each id. Ids that are malformed
// or do not exist are skipped; any other adapter failure aborts the call.
func (s *Service) ResolveCommits(ctx context.Context, ids []string) ([]models.CommitData, error) {
	commits := make([]models.CommitData, 0, len(ids))

	for _, id := range ids {
		rev, err := ParseRevision(id)
		if err != nil {
			logger.Warn(ctx, "skipping malformed commit id", "commit_id", id)
			continue
		}

		detail, err := s.GetCommitDetail(ctx, rev)
		if err != nil {
			if errors.TypeOf(err) == errors.TypeNotFound {
				logger.Warn(ctx, "skipping unknown commit", "commit_id", id)
				continue
			}
			return nil, err
		}

		diffs, err := s.GetCommitDiff(ctx, rev)
		if err != nil {
			return nil, err
		}

		commits = append(commits, models.CommitData{
			ID:        id,
			Author:    detail.Author,
			Timestamp: detail.Date,
			Message:   detail.Message,
			Diff:      JoinDiffs(diffs),
		})
	}

	logger.Debug(ctx, "resolved commits", "requested", len(ids), "commits", len(commits))
	return commits, nil
}
