/*
Package splitter breaks oversized GTFS text files into size-bounded parts.

Scan walks one directory, and every regular .txt file larger than the
threshold is rewritten as {base}.{ordinal}.txt parts next to it:

  - every part starts with the source file's header line, byte for byte
  - no data line is split, dropped, duplicated or reordered across parts
  - a part is flushed as soon as the next line would push it over the
    threshold, but only once it holds at least one data line, so a single
    huge line still makes progress in a part of its own
  - a part holding only the header is never written

Files already named like name.N.txt are treated as earlier output and
skipped, which makes repeated scans idempotent.

Input is read in fixed-size chunks; the partial line at the end of each
chunk is carried into the next one. Parts are written one at a time through
a PartSink before reading continues.
*/
package splitter
