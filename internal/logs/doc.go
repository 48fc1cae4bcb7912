// Package logs reads the marqueed log file for `marquee logs`.
//
// Last returns the trailing lines of the file with bounded memory, and Follow
// polls for appended lines until its context ends, restarting from the top
// when the file is truncated or rotated. Filter selects lines by level,
// component and user, understanding both the JSON and the console log
// formats written by the logging package.
package logs
