package repository

import (
	"fmt"
	"strings"

	"communityhub/internal/domain/entity"
	"communityhub/pkg/utils"
)

// buildTransactionWhere renders the WHERE clause shared by the ledger's
// list and count queries, so Total always reflects the filtered set.
func buildTransactionWhere(userID string, filter entity.TransactionFilter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	add := func(expr string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.From > 0 {
		add("created_at >= $%d", utils.FromMillis(filter.From))
	}
	if filter.To > 0 {
		add("created_at <= $%d", utils.FromMillis(filter.To))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}
