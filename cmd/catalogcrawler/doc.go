// Command catalogcrawler serves the catalog and headline crawler over HTTP.
//
// Usage:
//
//	catalogcrawler -config config.yaml
//	catalogcrawler -crawl-once
//
// Configuration comes from the optional YAML file plus CRAWLER_* environment
// variables (for example CRAWLER_REDIS_ADDR). With -crawl-once the binary
// reindexes the catalog a single time and exits instead of serving.
package main
