package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

var (
	compositeFormat = regexp.MustCompile(`^([+-]?\d+)\s*,\s*([+-]?\d+)$`)
	singleFormat    = regexp.MustCompile(`^[+-]?\d+$`)
)

// Parse validates a raw classifier answer. Accepted forms are "A,B" and the
// legacy single rating "A" (ideology unscored). Anything else, or any value
// out of range, is an error; values are never clamped.
func Parse(raw string) (domain.Classification, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSpace(s)

	if m := compositeFormat.FindStringSubmatch(s); m != nil {
		rating, err := strconv.Atoi(m[1])
		if err != nil {
			return domain.Classification{}, parseError(raw, err)
		}
		ideology, err := strconv.Atoi(m[2])
		if err != nil {
			return domain.Classification{}, parseError(raw, err)
		}
		c := domain.Classification{Rating: rating, Ideology: ideology}
		if err := c.Validate(); err != nil {
			return domain.Classification{}, parseError(raw, err)
		}
		return c, nil
	}

	if singleFormat.MatchString(s) {
		rating, err := strconv.Atoi(s)
		if err != nil {
			return domain.Classification{}, parseError(raw, err)
		}
		c := domain.Classification{Rating: rating, Ideology: domain.IdeologyUnscored}
		if err := c.Validate(); err != nil {
			return domain.Classification{}, parseError(raw, err)
		}
		return c, nil
	}

	return domain.Classification{}, parseError(raw, fmt.Errorf("unexpected format"))
}

func parseError(raw string, cause error) error {
	return &Error{
		Kind:    KindParse,
		Message: fmt.Sprintf("could not parse rating/ideology from %q: %v", raw, cause),
		Err:     ErrUnparsable,
	}
}
