package repository

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityhub/internal/domain/entity"
)

func TestBuildTransactionWhereUserOnly(t *testing.T) {
	where, args := buildTransactionWhere("u1", entity.TransactionFilter{})

	assert.Equal(t, "WHERE user_id = $1", where)
	assert.Equal(t, []any{"u1"}, args)
}

func TestBuildTransactionWhereAllFilters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildTransactionWhere("u1", entity.TransactionFilter{
		Type:   entity.TransactionReferral,
		Status: entity.StatusCompleted,
		From:   from.UnixMilli(),
		To:     to.UnixMilli(),
	})

	assert.Equal(t, "WHERE user_id = $1 AND type = $2 AND status = $3 AND created_at >= $4 AND created_at <= $5", where)
	assert.Equal(t, []any{"u1", "referral", "completed", from, to}, args)
}

func TestBuildTransactionWhereSkipsZeroRangeBounds(t *testing.T) {
	where, args := buildTransactionWhere("u1", entity.TransactionFilter{Status: entity.StatusPending})

	assert.Equal(t, "WHERE user_id = $1 AND status = $2", where)
	assert.Len(t, args, 2)
}

func TestChunkStrings(t *testing.T) {
	ids := make([]string, 65)
	for i := range ids {
		ids[i] = "u"
	}

	chunks := chunkStrings(ids, firestoreInLimit)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 30)
	assert.Len(t, chunks[2], 5)
	assert.Empty(t, chunkStrings(nil, firestoreInLimit))
}

func TestPaginate(t *testing.T) {
	start, end := paginate(10, 3, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	start, end = paginate(10, 3, 9)
	assert.Equal(t, 9, start)
	assert.Equal(t, 10, end)

	start, end = paginate(10, 0, 4)
	assert.Equal(t, 4, start)
	assert.Equal(t, 10, end)

	start, end = paginate(2, 5, 7)
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, end)

	start, end = paginate(3, 20, -9223372036854775796)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}

func TestAdaptersLogThroughSharedLogger(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	fset := token.NewFileSet()
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			assert.NotEqual(t, `"log"`, imp.Path.Value, "%s imports stdlib log", name)
		}
	}
}
