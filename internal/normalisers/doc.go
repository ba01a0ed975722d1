// Package normalisers turns uploaded files into plain-text units.
//
// Each supported source type has exactly one loader, selected by Registry
// with a switch over the closed domain.SourceType set:
//
//   - pdf: one unit per page, extracted with unipdf
//   - docx: one unit for the document body, read from word/document.xml
//   - txt: one unit holding the whole file
package normalisers
