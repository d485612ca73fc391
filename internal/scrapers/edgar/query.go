package edgar

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityQuery identifies the filer to crawl by CIK, by name or by both.
type EntityQuery struct {
	CIK  string
	Name string
}

func isIdentifier(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// ParseEntityQuery accepts "Name | CIK", "CIK | Name", a bare CIK or a bare
// name. The side of a pair that is an integer is the CIK.
func ParseEntityQuery(input string) (EntityQuery, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return EntityQuery{}, fmt.Errorf("%w: empty entity", ErrUserInput)
	}

	if !strings.Contains(input, "|") {
		if isIdentifier(input) {
			return EntityQuery{CIK: input}, nil
		}
		return EntityQuery{Name: input}, nil
	}

	parts := strings.Split(input, "|")
	if len(parts) != 2 {
		return EntityQuery{}, fmt.Errorf("%w: expected \"Name | CIK\", got %q", ErrUserInput, input)
	}
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])
	if left == "" || right == "" {
		return EntityQuery{}, fmt.Errorf("%w: expected \"Name | CIK\", got %q", ErrUserInput, input)
	}

	switch {
	case isIdentifier(left):
		return EntityQuery{CIK: left, Name: right}, nil
	case isIdentifier(right):
		return EntityQuery{CIK: right, Name: left}, nil
	default:
		return EntityQuery{}, fmt.Errorf("%w: neither side of %q is a CIK", ErrUserInput, input)
	}
}

func (q EntityQuery) IsZero() bool {
	return q.CIK == "" && q.Name == ""
}

func (q EntityQuery) String() string {
	switch {
	case q.CIK != "" && q.Name != "":
		return fmt.Sprintf("%s | %s", q.Name, q.CIK)
	case q.CIK != "":
		return q.CIK
	default:
		return q.Name
	}
}
