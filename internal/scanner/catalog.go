package scanner

import "github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"

// BuiltinCatalog returns the security rule set that ships with the scanner,
// matching spec.md §4.5's "a built-in security catalog" source. These rules
// are language-agnostic substring/regex checks, not full parsers: the quick
// layer trades precision for being cheap enough to run on every save.
func BuiltinCatalog() []Rule {
	return []Rule{
		MustCompile(
			"hardcoded-secret",
			`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*['"][A-Za-z0-9_\-]{12,}['"]`,
			cvatypes.SeverityCritical,
			"possible hardcoded credential",
			"load the value from environment or a secrets manager instead",
		),
		MustCompile(
			"eval-usage",
			`(?i)\beval\s*\(`,
			cvatypes.SeverityHigh,
			"use of eval() on potentially untrusted input",
			"replace eval with an explicit parser or whitelist of allowed operations",
		),
		MustCompile(
			"exec-shell-true",
			`(?i)shell\s*=\s*True`,
			cvatypes.SeverityHigh,
			"subprocess call with shell=True risks shell injection",
			"pass args as a list and use shell=False",
		),
		MustCompile(
			"sql-string-concat",
			`(?i)(SELECT|INSERT|UPDATE|DELETE)\b.*["']\s*\+\s*\w+`,
			cvatypes.SeverityHigh,
			"SQL built via string concatenation",
			"use parameterized queries or an ORM",
		),
		MustCompile(
			"pickle-load",
			`(?i)\bpickle\.loads?\s*\(`,
			cvatypes.SeverityMedium,
			"unpickling data can execute arbitrary code if the source is untrusted",
			"use a safe serialization format such as json",
		),
		MustCompile(
			"insecure-random",
			`(?i)\brandom\.(random|randint|choice)\s*\(`,
			cvatypes.SeverityLow,
			"non-cryptographic random used; confirm this isn't for security-sensitive values",
			"use crypto/rand or secrets for tokens and keys",
		),
		MustCompile(
			"todo-fixme-security",
			`(?i)(TODO|FIXME).{0,40}(security|vuln|unsafe|insecure)`,
			cvatypes.SeverityMedium,
			"security-related TODO left unresolved",
			"",
		),
	}
}
