// Package ingest discovers documentation files, tracks their content hashes in a ledger and
// drives a single incremental ingestion run into the vector store.
package ingest

import (
	"path/filepath"
	"strings"
)

// Special file names that carry no extension but have their own chunk policy.
const (
	TagDockerfile  = "dockerfile"
	TagMakefile    = "makefile"
	TagJenkinsfile = "jenkinsfile"
	TagText        = "txt"
)

// Classify maps a path to its type tag. It never fails.
func Classify(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(name, TagDockerfile):
		return TagDockerfile
	case name == TagMakefile:
		return TagMakefile
	case name == TagJenkinsfile:
		return TagJenkinsfile
	}

	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return TagText
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return TagText
	}
	return ext
}

func isSpecialName(name string) bool {
	switch strings.ToLower(name) {
	case TagDockerfile, TagMakefile, TagJenkinsfile:
		return true
	}
	return false
}
