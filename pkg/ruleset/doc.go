// Package ruleset loads, merges, and resolves rule-set files.
//
// Rule-set files are discovered by walking from the target file's directory
// up to the filesystem root, plus a user-level fragment under the XDG config
// directory. Closer fragments take precedence: their rules are tried first
// and their options override farther ones field by field.
package ruleset
