package utils

// TruncateRunes shortens s to at most limit runes, appending suffix when it
// cuts. Operating on runes keeps multi-byte text valid for JSON and YAML.
func TruncateRunes(s string, limit int, suffix string) string {
	if limit <= 0 {
		return suffix
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + suffix
}
