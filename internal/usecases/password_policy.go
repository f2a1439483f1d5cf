package usecases

import (
	"fmt"
	"strings"
	"unicode"

	domainerrors "farmvet-auth.backend/internal/domain/errors"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

const maxSimilarity = 0.7

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 1234567 12345678 123456789 1234567890 password password1 password123
		qwerty qwerty123 qwertyuiop abc123 abcd1234 111111 000000 123123 654321
		iloveyou admin admin123 welcome welcome1 letmein monkey dragon sunshine
		princess football baseball master shadow superman trustno1 passw0rd
		p@ssw0rd starwars whatever freedom login hello123 charlie donald
		1q2w3e4r 1qaz2wsx zaq12wsx q1w2e3r4 asdfghjkl asdf1234 changeme secret
		farmer123 nepal123 kathmandu
	`) {
		commonPasswords[p] = struct{}{}
	}
}

// CheckStrength validates password against the password policy. attrs are
// user attributes (username, email, full name) the password must not resemble.
func CheckStrength(password string, attrs ...string) error {
	return checkStrengthField("password", password, attrs...)
}

func checkStrengthField(field, password string, attrs ...string) error {
	if msg := passwordProblem(password, attrs); msg != "" {
		return domainerrors.NewValidationError(field, msg)
	}
	return nil
}

func passwordProblem(password string, attrs []string) string {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}
	lower := strings.ToLower(password)
	for _, attr := range attrs {
		if tooSimilar(lower, strings.ToLower(attr)) {
			return "The password is too similar to your personal information."
		}
	}
	if _, ok := commonPasswords[lower]; ok {
		return "This password is too common."
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return "This password is entirely numeric."
	}
	return ""
}

// tooSimilar compares the password with the attribute and each of its word parts
func tooSimilar(password, attr string) bool {
	if attr == "" {
		return false
	}
	parts := strings.FieldsFunc(attr, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	parts = append(parts, attr)
	for _, part := range parts {
		if len(part) < 3 {
			continue
		}
		if similarity(password, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// similarity is 2*M/T where M is the longest common substring length
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	longest := 0
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > longest {
					longest = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(longest) / float64(total)
}
