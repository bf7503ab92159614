package db

import (
	"io/fs"
)

func migrationFS() fs.FS {
	sub, err := fs.Sub(migrations, migrationsDir)
	if err != nil {
		// the directory is embedded at compile time
		panic(err)
	}
	return sub
}
