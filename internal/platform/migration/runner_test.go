// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/userhub/internal/platform/migration"
)

/*
TestConvertToPgx5DSN rewrites postgres schemes and leaves others untouched.
*/
func TestConvertToPgx5DSN(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/userhub":   "pgx5://u:p@db:5432/userhub",
		"postgresql://u:p@db:5432/userhub": "pgx5://u:p@db:5432/userhub",
		"pgx5://u:p@db:5432/userhub":       "pgx5://u:p@db:5432/userhub",
		"host=db user=u dbname=userhub":    "host=db user=u dbname=userhub",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, migration.ConvertToPgx5DSN(input))
	}
}

/*
TestRunDown_RejectsNonPositiveSteps validates input before touching the database.
*/
func TestRunDown_RejectsNonPositiveSteps(t *testing.T) {
	assert.Error(t, migration.RunDown("postgres://u:p@localhost:1/none", "./missing", 0, nil))
}
