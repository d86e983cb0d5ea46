// Package migrations SQL-миграции обеих баз, встроенные в бинарник
package migrations

import "embed"

// Slots миграции базы слотов, каталог "slots"
//
//go:embed slots/*.sql
var Slots embed.FS

// Reservations миграции базы броней, каталог "reservations"
//
//go:embed reservations/*.sql
var Reservations embed.FS
