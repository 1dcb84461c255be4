package index

const timestampFormat = "20060102150405"

//TimestampedName appends the current UTC second to prefix. Two calls within the same second
//return the same name.
func (m *Manager) TimestampedName(prefix string) string {
	return prefix + "_" + m.now().UTC().Format(timestampFormat)
}
