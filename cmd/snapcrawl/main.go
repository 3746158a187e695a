// Package main provides the snapcrawl CLI.
//
// snapcrawl walks the same-origin pages reachable from a start page in a
// real browser, captures markup and a full-page screenshot of each, and
// delivers every capture to a remote endpoint or local files.
//
// Usage:
//
//	snapcrawl crawl --url https://app.example.com/
//	snapcrawl version
package main

func main() {
	Execute()
}
