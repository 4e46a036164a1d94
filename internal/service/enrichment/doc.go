// Package enrichment fills in missing example sentences in the background.
//
// When an item is created without an example an enrichment task is
// submitted to the task runner. The task asks a generation.Generator for a
// sentence and stores it, unless the user added an example in the meantime.
package enrichment
