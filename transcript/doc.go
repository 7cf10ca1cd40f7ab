// Package transcript parses raw meeting transcript text into ordered speaker
// segments and groups those segments into retrieval chunks.
//
// The parser recognizes the common "[HH:MM:SS] Speaker: content" line format
// with flexible separators, and degrades to paragraph-based segmentation
// under a synthetic speaker when no structure is present. It fails only on
// input with no extractable text at all.
package transcript
