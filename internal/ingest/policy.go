package ingest

import "github.com/mwiater/docindex/internal/splitter"

// ChunkPolicy holds the splitter parameters for one type tag.
type ChunkPolicy struct {
	Size     int
	Overlap  int
	Language splitter.Language
}

// Params converts the policy into splitter parameters.
func (p ChunkPolicy) Params() splitter.Params {
	return splitter.Params{Size: p.Size, Overlap: p.Overlap, Language: p.Language}
}

// DefaultPolicy applies to tags that are not in the table.
var DefaultPolicy = ChunkPolicy{Size: 600, Overlap: 50}

var policies = map[string]ChunkPolicy{
	"md":  {Size: 800, Overlap: 100},
	"txt": {Size: 800, Overlap: 100},

	"yaml": {Size: 500, Overlap: 50},
	"yml":  {Size: 500, Overlap: 50},
	"json": {Size: 500, Overlap: 50},
	"toml": {Size: 500, Overlap: 50},

	"tf":  {Size: 600, Overlap: 50},
	"hcl": {Size: 600, Overlap: 50},

	"py":   {Size: 400, Overlap: 50, Language: splitter.LanguagePython},
	"sh":   {Size: 400, Overlap: 50},
	"bash": {Size: 400, Overlap: 50},
	"go":   {Size: 400, Overlap: 50, Language: splitter.LanguageGo},
	"js":   {Size: 400, Overlap: 50, Language: splitter.LanguageJS},
	"ts":   {Size: 400, Overlap: 50, Language: splitter.LanguageTS},
	"java": {Size: 400, Overlap: 50, Language: splitter.LanguageJava},
	"rs":   {Size: 400, Overlap: 50, Language: splitter.LanguageRust},

	TagDockerfile:  {Size: 500, Overlap: 50},
	TagMakefile:    {Size: 500, Overlap: 50},
	TagJenkinsfile: {Size: 500, Overlap: 50},
}

// passthrough tags are indexed with the default policy.
var passthrough = map[string]struct{}{
	"txt": {}, "xml": {}, "html": {}, "css": {}, "sql": {},
	"groovy": {}, "ini": {}, "cfg": {}, "conf": {},
}

// PolicyFor returns the chunk policy for tag, or DefaultPolicy.
func PolicyFor(tag string) ChunkPolicy {
	if p, ok := policies[tag]; ok {
		return p
	}
	return DefaultPolicy
}

// KnownPolicy reports whether tag has an explicit table entry.
func KnownPolicy(tag string) bool {
	_, ok := policies[tag]
	return ok
}

func eligibleTag(tag string) bool {
	if KnownPolicy(tag) {
		return true
	}
	_, ok := passthrough[tag]
	return ok
}
