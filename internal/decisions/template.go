/*-------------------------------------------------------------------------
 *
 * template.go
 *    Prompt template interpolation
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/decisions/template.go
 *
 *-------------------------------------------------------------------------
 */

package decisions

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

/*
 * RenderTemplate substitutes {{key}} placeholders with values from the
 * instance working data. A placeholder whose key is absent renders as
 * the empty string; the miss is logged but never fails the step.
 */
func RenderTemplate(template string, data map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := data[key]
		if !ok {
			log.Warn().Str("placeholder", key).Msg("Template placeholder not found in working data")
			return ""
		}
		return stringify(value)
	})
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
