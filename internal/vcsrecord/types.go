// Package vcsrecord holds the record types produced by the local
// extraction pipeline, grounded on original_source/src/common/types.rs
// (CommitInfo, BlameLineInfo, BranchInfo).
package vcsrecord

// Commit is a single commit as extracted from `git log --numstat`.
type Commit struct {
	SHA              string
	RepoName         string
	Message          string
	AuthorName       string
	AuthorEmail      string
	AuthorTime       int64
	AuthorTZOffset   int32
	CommitterName    string
	CommitterEmail   string
	CommitterTime    int64
	CommitterTZOffset int32
	Additions        uint64
	Deletions        uint64
	IsMerge          bool
}

// BlameLine is a single line as extracted from `git blame --line-porcelain`.
type BlameLine struct {
	CommitID    string
	AuthorName  string
	AuthorEmail string
	OrigLineNo  int
	FinalLineNo int
	LineContent string
}

// Branch is a single branch as extracted from `git branch -a --format=...`.
type Branch struct {
	Name          string
	RemoteName    string // empty when not a remote branch
	IsRemote      bool
	CommitID      string
	CommitMessage string
	AuthorName    string
	AuthorEmail   string
	AuthorTime    int64
	IsHead        bool
}
