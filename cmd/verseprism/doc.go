// Command verseprism extracts numbered verses from marked-up plaintext
// corpora such as the GRETIL Aṣṭāvakra Gītā and writes them as JSON or
// SQLite. It can also browse, summarize and replay previous runs.
package main
