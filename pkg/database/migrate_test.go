package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_init_people.sql",
		"migrations/00002_init_catalog.sql",
		"migrations/00003_init_enrollments.sql",
		"migrations/00004_widen_discount_percentage.sql",
	}, names)
}

// Fixed discounts above the base price yield percentages beyond 1000.
func TestDiscountPercentageColumnFitsLargeFixedDiscounts(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, migrationsDir+"/00004_widen_discount_percentage.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ALTER COLUMN discount_percentage TYPE NUMERIC(16, 4);")
}
