// Package export renders payment records into an Excel workbook and keeps
// the result in a Sink (local directory or S3 bucket) for later download.
package export
