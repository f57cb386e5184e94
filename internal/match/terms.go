package match

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed terms.yaml
var termsYAML []byte

type termData struct {
	VersionedTech []string `yaml:"versioned_tech"`
	StopWords     []string `yaml:"stop_words"`
}

var (
	termsOnce     sync.Once
	versionedTech map[string]struct{}
	stopWords     map[string]struct{}
)

func loadTerms() {
	termsOnce.Do(func() {
		var d termData
		if err := yaml.Unmarshal(termsYAML, &d); err != nil {
			// The file is embedded; failure here is a build defect.
			panic(fmt.Sprintf("match: parsing terms.yaml: %v", err))
		}
		versionedTech = make(map[string]struct{}, len(d.VersionedTech))
		for _, t := range d.VersionedTech {
			versionedTech[t] = struct{}{}
		}
		stopWords = make(map[string]struct{}, len(d.StopWords))
		for _, w := range d.StopWords {
			stopWords[w] = struct{}{}
		}
	})
}

// IsVersionedBase reports whether base (digits and dots already stripped) is
// a known version-bearing technology name.
func IsVersionedBase(base string) bool {
	loadTerms()
	_, ok := versionedTech[base]
	return ok
}

// IsStopWord reports whether the normalized word is a stop-word for search
// keyword reduction.
func IsStopWord(word string) bool {
	loadTerms()
	_, ok := stopWords[word]
	return ok
}
