package utils

// NonEmptyStrings filters out empty entries, preserving order.
func NonEmptyStrings(values []string) []string {
	filtered := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
