// Package redact — маскирование чувствительных значений в логах.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен:
// "foobar@example.com" -> "fo***@example.com". Локальная часть короче
// трёх рун скрывается целиком; строки без единственного '@' -> "***".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
