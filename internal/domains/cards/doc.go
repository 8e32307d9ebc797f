// Package cards holds the content transforms behind every workflow: building
// and reading vCard 3.0 records, renaming contacts, merging and splitting
// card- or line-structured files, and parsing free-form name/number text.
//
// All functions are pure; file handling lives with the callers.
package cards
