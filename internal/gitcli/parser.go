package gitcli

import (
	"strconv"
	"strings"

	"github.com/italoag/gitrepoanalyzer/internal/vcsrecord"
)

// ParseCommitLog parses the combined `git log --pretty=format:... --numstat`
// stream, grounded on original_source/src/github/commits.rs:
// parse_git_log_output. A commit header line must split into exactly 9
// '|'-separated fields or it is silently skipped; numstat lines following a
// header accumulate into Additions/Deletions until an empty line, the next
// header, or EOF.
func ParseCommitLog(output []byte, repoName string) []vcsrecord.Commit {
	var commits []vcsrecord.Commit
	lines := strings.Split(string(output), "\n")

	i := 0
	for i < len(lines) {
		line := lines[i]
		i++
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 9 {
			continue
		}

		c := vcsrecord.Commit{
			SHA:            parts[0],
			RepoName:       repoName,
			Message:        parts[7],
			AuthorName:     parts[1],
			AuthorEmail:    parts[2],
			AuthorTime:     parseInt64(parts[3]),
			CommitterName:  parts[4],
			CommitterEmail: parts[5],
			CommitterTime:  parseInt64(parts[6]),
			IsMerge:        strings.Contains(parts[8], " "),
		}

		var additions, deletions uint64
		for i < len(lines) {
			next := lines[i]
			if next == "" || strings.Contains(next, "|") {
				break
			}
			i++
			fields := strings.Fields(next)
			if len(fields) < 2 {
				continue
			}
			if add, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
				additions += add
			}
			if del, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				deletions += del
			}
		}
		c.Additions = additions
		c.Deletions = deletions

		commits = append(commits, c)
	}

	return commits
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseBlamePorcelain parses `git blame --line-porcelain` output, grounded
// on original_source/src/github/repo.rs:parse_blame_output.
//
// The original matches header lines with `line.starts_with("Commit ")`
// (capital C), but real porcelain output starts each block with the bare
// SHA ("<sha> <orig> <final> <count>") and has no "Commit " key — the
// condition never fires, so CommitID is always empty in every known
// deployment of this parser. This is reproduced verbatim rather than
// corrected: spec.md §9 names it as an apparent source bug to preserve,
// not fix.
func ParseBlamePorcelain(output []byte) []vcsrecord.BlameLine {
	var (
		result      []vcsrecord.BlameLine
		commitID    string
		authorName  string
		authorEmail string
		origLine    int
		finalLine   int
	)

	for _, line := range strings.Split(string(output), "\n") {
		switch {
		case strings.HasPrefix(line, "Commit "):
			commitID = strings.TrimSpace(line[len("Commit "):])
		case strings.HasPrefix(line, "author-mail "):
			email := strings.TrimSpace(line[len("author-mail "):])
			email = strings.TrimPrefix(email, "<")
			email = strings.TrimSuffix(email, ">")
			authorEmail = email
		case strings.HasPrefix(line, "author "):
			authorName = strings.TrimSpace(line[len("author "):])
		case strings.HasPrefix(line, "original-line "):
			origLine = atoiOr0(strings.TrimSpace(line[len("original-line "):]))
		case strings.HasPrefix(line, "final-line "):
			finalLine = atoiOr0(strings.TrimSpace(line[len("final-line "):]))
		case strings.HasPrefix(line, "\t"):
			result = append(result, vcsrecord.BlameLine{
				CommitID:    commitID,
				AuthorName:  authorName,
				AuthorEmail: authorEmail,
				OrigLineNo:  origLine,
				FinalLineNo: finalLine,
				LineContent: line[1:],
			})
		}
	}

	return result
}

func atoiOr0(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// ParseBranches parses `git branch -a --format=...` output, grounded on
// original_source/src/github/branches.rs. A line must split into exactly 7
// '|'-separated fields or it is silently skipped.
func ParseBranches(output []byte) []vcsrecord.Branch {
	var branches []vcsrecord.Branch

	for _, line := range strings.Split(string(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 7 {
			continue
		}

		refname := parts[0]
		b := vcsrecord.Branch{
			CommitID:      parts[1],
			CommitMessage: parts[2],
			AuthorName:    parts[3],
			AuthorEmail:   parts[4],
			AuthorTime:    parseInt64(parts[5]),
			IsHead:        parts[6] == "*",
		}

		switch {
		case strings.HasPrefix(refname, "refs/remotes/"):
			rest := strings.TrimPrefix(refname, "refs/remotes/")
			segments := strings.Split(rest, "/")
			if len(segments) >= 2 {
				b.RemoteName = segments[0]
				b.Name = strings.Join(segments[1:], "/")
				b.IsRemote = true
			} else {
				b.Name = refname
				b.IsRemote = true
			}
		case strings.HasPrefix(refname, "refs/heads/"):
			b.Name = strings.TrimPrefix(refname, "refs/heads/")
			b.IsRemote = false
		default:
			b.Name = refname
			b.IsRemote = false
		}

		branches = append(branches, b)
	}

	return branches
}
