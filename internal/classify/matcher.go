// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package classify

import "strings"

// categoryMatcher finds threat-category keywords in free text using the
// Aho-Corasick algorithm. All patterns are matched in a single O(n + m + z)
// pass, where n is the text length, m the total pattern length, and z the
// number of matches - much faster than substring-checking each keyword
// individually when the pattern table grows.
//
// The automaton is built once at construction and immutable afterwards, so
// Categories is safe for concurrent use without locking.
type categoryMatcher struct {
	root *matchNode
}

// matchNode is a node in the Aho-Corasick automaton.
type matchNode struct {
	children map[rune]*matchNode
	failure  *matchNode
	// categories that have a keyword ending at this node
	categories []string
}

func newMatchNode() *matchNode {
	return &matchNode{children: make(map[rune]*matchNode)}
}

// newCategoryMatcher builds the automaton from a category -> keywords table.
// Matching is case-insensitive; keywords are lowercased at build time and
// Categories lowercases the input text.
func newCategoryMatcher(table map[string][]string) *categoryMatcher {
	m := &categoryMatcher{root: newMatchNode()}

	for category, keywords := range table {
		for _, kw := range keywords {
			m.insert(strings.ToLower(kw), category)
		}
	}

	m.buildFailureLinks()
	return m
}

func (m *categoryMatcher) insert(keyword, category string) {
	if keyword == "" {
		return
	}
	node := m.root
	for _, r := range keyword {
		child, ok := node.children[r]
		if !ok {
			child = newMatchNode()
			node.children[r] = child
		}
		node = child
	}
	node.categories = append(node.categories, category)
}

// buildFailureLinks wires the automaton failure transitions breadth-first.
// Each node's failure link points to the longest proper suffix of its path
// that is also a prefix of some pattern.
func (m *categoryMatcher) buildFailureLinks() {
	queue := make([]*matchNode, 0, len(m.root.children))

	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for r, child := range node.children {
			queue = append(queue, child)

			fail := node.failure
			for fail != nil {
				if next, ok := fail.children[r]; ok {
					child.failure = next
					break
				}
				fail = fail.failure
			}
			if child.failure == nil {
				child.failure = m.root
			}

			// Inherit matches from the failure chain so suffix patterns
			// are reported too.
			child.categories = append(child.categories, child.failure.categories...)
		}
	}
}

// Categories returns the deduplicated set of categories whose keywords occur
// anywhere in text. The result order is unspecified; callers sort if they
// need determinism.
func (m *categoryMatcher) Categories(text string) map[string]struct{} {
	found := make(map[string]struct{})
	node := m.root

	for _, r := range strings.ToLower(text) {
		for node != m.root && node.children[r] == nil {
			node = node.failure
		}
		if next, ok := node.children[r]; ok {
			node = next
		}
		for _, c := range node.categories {
			found[c] = struct{}{}
		}
	}

	return found
}
