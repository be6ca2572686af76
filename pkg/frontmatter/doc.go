// Package frontmatter splits source documents into their front matter and
// body. YAML front matter is fenced with "---" lines and JSON front matter
// with ";;;" lines.
package frontmatter
