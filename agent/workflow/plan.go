package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

// NewTodo builds one plan step with a generated id.
func NewTodo(title, description, estimatedTime string) contractx.Todo {
	return contractx.Todo{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		EstimatedTime: strings.TrimSpace(estimatedTime),
	}
}

// TotalEstimatedTime sums the parseable per-todo estimates ("5m", "1h").
// Unparseable estimates are skipped rather than failing the plan.
func TotalEstimatedTime(plan contractx.Plan) time.Duration {
	var total time.Duration
	for _, todo := range plan.Todos {
		if todo.EstimatedTime == "" {
			continue
		}
		d, err := time.ParseDuration(todo.EstimatedTime)
		if err != nil {
			continue
		}
		total += d
	}
	return total
}
