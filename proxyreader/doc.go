// Package proxyreader answers read queries against two registry generations
// through one surface, so clients need not know which registry holds a name
// during the migration period. The current-generation registry wins when
// both hold an id; unknown ids read as zero values.
package proxyreader
