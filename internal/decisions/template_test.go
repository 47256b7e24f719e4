/*-------------------------------------------------------------------------
 *
 * template_test.go
 *    Tests for prompt template interpolation
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/decisions/template_test.go
 *
 *-------------------------------------------------------------------------
 */

package decisions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	data := map[string]interface{}{
		"customer": "Acme Corp",
		"amount":   float64(42),
		"urgent":   true,
	}

	t.Run("substitutes values", func(t *testing.T) {
		out := RenderTemplate("Refund {{amount}} to {{customer}}", data)
		assert.Equal(t, "Refund 42 to Acme Corp", out)
	})

	t.Run("tolerates whitespace inside braces", func(t *testing.T) {
		out := RenderTemplate("Customer: {{ customer }}", data)
		assert.Equal(t, "Customer: Acme Corp", out)
	})

	t.Run("missing key renders empty", func(t *testing.T) {
		out := RenderTemplate("Ticket {{ticket_id}} for {{customer}}", data)
		assert.Equal(t, "Ticket  for Acme Corp", out)
	})

	t.Run("non-string values stringified", func(t *testing.T) {
		out := RenderTemplate("urgent={{urgent}}", data)
		assert.Equal(t, "urgent=true", out)
	})

	t.Run("no placeholders passes through", func(t *testing.T) {
		out := RenderTemplate("plain text", data)
		assert.Equal(t, "plain text", out)
	})
}
