package msi

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NormalizeProductCode validates a ProductCode property value and returns it
// in the canonical brace-wrapped upper-case GUID form the installer uses.
func NormalizeProductCode(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	trimmed = strings.TrimPrefix(trimmed, "{")
	trimmed = strings.TrimSuffix(trimmed, "}")

	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid product code %q: %w", code, err)
	}

	return "{" + strings.ToUpper(id.String()) + "}", nil
}
