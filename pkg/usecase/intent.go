package usecase

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

// IntentFilter classifies a message before retrieval so that requests to
// enumerate memories skip similarity search.
type IntentFilter struct {
	listPatterns []*regexp.Regexp
}

func NewIntentFilter(listPatterns []string) (*IntentFilter, error) {
	f := &IntentFilter{}
	for _, p := range listPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid intent pattern", goerr.V("pattern", p))
		}
		f.listPatterns = append(f.listPatterns, re)
	}
	return f, nil
}

func (f *IntentFilter) Detect(message string) model.Intent {
	for _, re := range f.listPatterns {
		if re.MatchString(message) {
			return model.IntentListMemories
		}
	}
	return model.IntentChat
}
