// Package sanitize provides HTML sanitization for user-provided input.
// Uses bluemonday with two policies: a strict policy that strips all markup
// from plain-text form fields (names, emails, subjects), and a UGC policy
// for course content authored in the rich-text editor.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are singletons initialized once via sync.Once for thread-safe
// lazy initialization.
var (
	strictPolicy *bluemonday.Policy
	ugcPolicy    *bluemonday.Policy
	policyOnce   sync.Once
)

// initPolicies builds the shared sanitization policies on first use.
func initPolicies() {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		ugcPolicy = bluemonday.UGCPolicy()

		// Course content comes from a rich-text editor that uses classes
		// and inline styles for alignment and emphasis blocks.
		ugcPolicy.AllowAttrs("class").Globally()
		ugcPolicy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th")

		// Tables for exercises and vocabulary grids.
		ugcPolicy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "col", "caption")
		ugcPolicy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	})
}

// Field strips ALL markup from a plain-text form field (first name, last
// name, lesson name, course subject, ...). Equivalent in intent to escaping
// on output; stripping on input means the stored value is safe wherever it
// is later rendered.
//
// This MUST be called on every free-text field before persisting it.
func Field(input string) string {
	if input == "" {
		return ""
	}
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// HTML sanitizes user-generated HTML (course content) by stripping dangerous
// elements (script, iframe, event handlers, javascript: URLs) while
// preserving safe formatting tags.
//
// This MUST be called on all user-provided HTML before storing it.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	initPolicies()
	return ugcPolicy.Sanitize(input)
}
