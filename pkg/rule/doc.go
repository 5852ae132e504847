// Package rule defines the action rule model: include/exclude pattern
// families (glob, regex, media type), tag filtering, and the command
// specifications attached to a rule.
package rule
