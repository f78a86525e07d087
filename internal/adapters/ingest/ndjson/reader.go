// Package ndjson streams normalized posts from newline-delimited JSON.
// Malformed lines are skipped and counted, never fatal; the run proceeds
// on whatever parsed.
package ndjson

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"strings"

	"cibscope/internal/core/post"
	"cibscope/internal/platform/logger"
)

const (
	maxScanTokenSize = 16 * 1024 * 1024
	initialBufSize   = 256 * 1024
)

// Summary is the running tally a Reader accumulates while streaming.
// Progressive: valid after every Next call, final after io.EOF.
type Summary struct {
	Lines   int   // lines seen, valid or not
	Posts   int   // posts emitted
	Skipped int   // malformed or invalid lines dropped
	Bytes   int64 // bytes consumed including newlines

	Users          int     // distinct author ids so far
	Hashtags       int     // distinct hashtags so far
	MeanEngagement float64 // likes+comments+shares averaged over posts
}

// Reader streams post.Post items from an NDJSON stream
type Reader struct {
	r   io.ReadCloser
	gz  *gzip.Reader
	sc  *bufio.Scanner
	err error
	sum Summary
	log logger.Logger

	users      map[string]bool
	tags       map[string]bool
	engagement int64
}

// NewReader wraps r; gzipped input is detected by the caller passing
// gzipped=true (the CLI keys off the filename)
func NewReader(r io.ReadCloser, gzipped bool) (*Reader, error) {
	rd := &Reader{
		r:     r,
		log:   *logger.Named("ndjson"),
		users: make(map[string]bool),
		tags:  make(map[string]bool),
	}
	var src io.Reader = r
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}
		rd.gz = gz
		src = gz
	}
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, initialBufSize), maxScanTokenSize)
	rd.sc = sc
	return rd, nil
}

// Open opens path and returns a Reader; .gz suffix enables decompression
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, strings.HasSuffix(path, ".gz"))
}

// Next reads the next valid post; returns io.EOF when done
func (rd *Reader) Next() (post.Post, error) {
	if rd.err != nil {
		return post.Post{}, rd.err
	}
	for {
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				rd.err = err
				return post.Post{}, err
			}
			rd.err = io.EOF
			return post.Post{}, io.EOF
		}
		line := rd.sc.Bytes()
		rd.sum.Lines++
		rd.sum.Bytes += int64(len(line) + 1) // include newline

		if len(line) == 0 {
			rd.sum.Skipped++
			continue
		}

		var p post.Post
		if err := json.Unmarshal(line, &p); err != nil {
			rd.sum.Skipped++
			if rd.sum.Skipped <= 5 {
				rd.log.Warn().Int("line", rd.sum.Lines).Err(err).Msg("ndjson: malformed line skipped")
			}
			continue
		}
		if !p.Valid() {
			rd.sum.Skipped++
			if rd.sum.Skipped <= 5 {
				rd.log.Warn().Int("line", rd.sum.Lines).Msg("ndjson: post missing author or timestamp, skipped")
			}
			continue
		}

		rd.sum.Posts++
		rd.users[p.AuthorID] = true
		for _, h := range p.Hashtags {
			rd.tags[h] = true
		}
		rd.engagement += int64(p.Engagement())
		return p, nil
	}
}

// Summary returns the tally so far; stable after Next returns io.EOF
func (rd *Reader) Summary() Summary {
	s := rd.sum
	s.Users = len(rd.users)
	s.Hashtags = len(rd.tags)
	if s.Posts > 0 {
		s.MeanEngagement = float64(rd.engagement) / float64(s.Posts)
	}
	return s
}

// Close closes the underlying reader(s)
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil {
			first = err
		}
	}
	if err := rd.r.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// ReadAll drains rd into a slice. Convenience for datasets that fit in
// memory, which is every dataset the detectors can handle anyway.
func ReadAll(rd *Reader) ([]post.Post, Summary, error) {
	var out []post.Post
	for {
		p, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, rd.Summary(), err
		}
		out = append(out, p)
	}
	sum := rd.Summary()
	if sum.Skipped > 0 {
		rd.log.Warn().Int("skipped", sum.Skipped).Int("posts", sum.Posts).Msg("ndjson: dataset loaded with skips")
	}
	return out, sum, nil
}
