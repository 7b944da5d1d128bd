// Package pipeline implements the HTML post-processing stages of document
// compilation:
//   - reference resolution: relative img/link references are looked up in
//     the request's search path and rewritten to absolute file:// URLs
//   - CSS injection: font faces and other style blocks are placed into the
//     document head
//
// Template execution itself lives in the root photocal package; PDF
// rendering is handled by headless Chrome (go-rod). Keeping these passes on
// plain HTML strings lets them be tested without a browser.
package pipeline
