package template

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans rendered HTML fragments.
type Sanitizer interface {
	Sanitize(html string) string
}

var (
	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy
)

// UGCSanitizer returns the shared bluemonday user-generated-content policy
// with class attributes allowed, so item templates can keep their styling
// hooks.
func UGCSanitizer() Sanitizer {
	ugcOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowDataAttributes()
		ugcPolicy = policy
	})
	return ugcPolicy
}
