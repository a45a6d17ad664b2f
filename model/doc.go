// Package model holds the Thread and Post records, their static field
// metadata, and the assembler that turns remote JSON objects into records.
//
// Remote member names are translated through ThreadMeta and PostMeta; the
// translation is exact and case-sensitive. Ids are accepted as numbers or
// numeric strings and always stored as int64.
package model
