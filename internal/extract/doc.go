// Package extract turns parsed catalog and news documents into crawler records.
//
// Extractors take a goquery document plus the URL it was loaded from and
// resolve every link against that URL. They never fetch.
package extract
