package store

// Key layout:
//
//	{prefix}{id}                     document
//	{prefix}idx:{index}:{value}      secondary index entry, value is the document ID
//
// Badger keeps key slices passed to Set until the transaction commits, so
// every key is freshly allocated.

const indexMarker = "idx:"

func entityKey(prefix, id string) []byte {
	buf := make([]byte, 0, len(prefix)+len(id))
	buf = append(buf, prefix...)
	return append(buf, id...)
}

func indexKey(prefix, indexName, value string) []byte {
	buf := make([]byte, 0, len(prefix)+len(indexMarker)+len(indexName)+1+len(value))
	buf = append(buf, prefix...)
	buf = append(buf, indexMarker...)
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	return append(buf, value...)
}

func isIndexKey(prefix string, key []byte) bool {
	rest := key[len(prefix):]
	return len(rest) >= len(indexMarker) && string(rest[:len(indexMarker)]) == indexMarker
}
