package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-academy/internal/catalog"
	"github.com/mind-engage/mindengage-academy/internal/db/dbtest"
)

func TestCourseSet(t *testing.T) {
	cs := catalog.NewCourseSet([]string{"foundation", " advanced ", "", "foundation"})
	assert.True(t, cs.Known("foundation"))
	assert.True(t, cs.Known("advanced"))
	assert.False(t, cs.Known("unknown"))
	assert.Equal(t, []string{"foundation", "advanced"}, cs.IDs())
}

func TestReplaceAndCountLessons(t *testing.T) {
	ctx := context.Background()
	c := catalog.NewSQLCatalog(dbtest.Open(t))

	n, err := c.TotalLessons(ctx, "foundation")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, c.ReplaceLessons(ctx, "foundation", []string{"Intro", "Basics", "Wrap-up"}))
	require.NoError(t, c.ReplaceLessons(ctx, "foundation", []string{"Intro", "Basics"}))

	n, err = c.TotalLessons(ctx, "foundation")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lessons, err := c.ListLessons(ctx, "foundation")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Lesson{{Index: 0, Title: "Intro"}, {Index: 1, Title: "Basics"}}, lessons)
}
