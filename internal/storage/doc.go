// Package storage keeps a history of recording outcomes.
//
// History is strictly best-effort: the poll loop logs a failed append and
// keeps going. The on-disk layout (jsonl or sqlite) is selected by config.
package storage
