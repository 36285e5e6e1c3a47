package models

import "time"

// FileAction is the single-letter change kind svn reports for a path.
type FileAction string

const (
	ActionAdded    FileAction = "A"
	ActionModified FileAction = "M"
	ActionDeleted  FileAction = "D"
	ActionReplaced FileAction = "R"
)

func (a FileAction) String() string {
	switch a {
	case ActionAdded:
		return "Added"
	case ActionModified:
		return "Modified"
	case ActionDeleted:
		return "Deleted"
	case ActionReplaced:
		return "Replaced"
	default:
		return string(a)
	}
}

type Commit struct {
	Revision int64     `json:"revision"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
	Message  string    `json:"message"`
}

type FileChange struct {
	Path             string     `json:"path"`
	Action           FileAction `json:"action"`
	CopyFromPath     string     `json:"copyFromPath,omitempty"`
	CopyFromRevision int64      `json:"copyFromRevision,omitempty"`
}

// CommitDetail is a commit plus its changed paths, in the order svn returned them.
type CommitDetail struct {
	Commit
	Files []FileChange `json:"files"`
}

// Diff is the portion of a revision diff that touches a single path.
type Diff struct {
	Path      string `json:"path"`
	Diff      string `json:"diff"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type RepositoryInfo struct {
	URL      string `json:"url"`
	UUID     string `json:"uuid,omitempty"`
	Revision int64  `json:"revision"`
}

// CommitFilters narrows a commit listing. Zero values mean "no filter".
type CommitFilters struct {
	Keyword       string
	Author        string
	StartRevision int64
	EndRevision   int64
}

type PaginationParams struct {
	Page     int
	PageSize int
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// CommitData is a commit resolved for review: metadata plus the full diff body.
type CommitData struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Diff      string    `json:"diff"`
}
