package directory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tendant/proforma-api/pkg/domain"
)

// Fixed-point values are validated and stored as text; no arithmetic is
// done on them. The shapes match the NUMERIC(12,2) and NUMERIC(5,2) columns.
var (
	amountPattern     = regexp.MustCompile(`^\d{1,10}(\.\d{1,2})?$`)
	percentagePattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,2})?$`)
)

func decimalValue(field, v string, pattern *regexp.Regexp) (string, error) {
	v = strings.TrimSpace(v)
	if !pattern.MatchString(v) {
		return "", fmt.Errorf("%w: %s must be a non-negative decimal with at most two fraction digits", domain.ErrInvalidInput, field)
	}
	return v, nil
}

func amount(field, v string) (string, error) {
	return decimalValue(field, v, amountPattern)
}

// optionalAmount maps a blank value to zero.
func optionalAmount(field, v string) (string, error) {
	if strings.TrimSpace(v) == "" {
		return "0", nil
	}
	return amount(field, v)
}

func percentage(field, v string) (string, error) {
	return decimalValue(field, v, percentagePattern)
}
