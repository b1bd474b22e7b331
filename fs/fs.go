package appfs

import "embed"

const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var FS embed.FS
