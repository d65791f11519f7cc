// Package exporter writes holdings and closing reports to CSV and Excel
// files under the reports directory.
package exporter
