package encoding

// PrefixExtractor is the hook handed to the KV engine so it can build bloom
// filters and prefix iterators (spec.md §4.1). It returns the fixed-length
// prefix of key that is stable across all triples/tuples sharing the same
// entity (or, for the view store, the same ViewRelId).
type PrefixExtractor func(key []byte) []byte

// TriplePrefixExtractor returns the first 1+EntityIdSize+AttrIdSize bytes of
// key, whatever its tag (the whole key when it is shorter): tag ∥ e ∥ a for
// EAV, tag ∥ a ∥ e for AEV, and for AVE/VAE the tag plus the leading bytes
// of the attribute id and value encoding.
func TriplePrefixExtractor(key []byte) []byte {
	if len(key) == 0 {
		return key
	}
	const prefixLen = 1 + EntityIdSize + AttrIdSize
	if len(key) < prefixLen {
		return key
	}
	return key[:prefixLen]
}

// ViewPrefixExtractor returns the ViewRelId prefix shared by every tuple of
// one view.
func ViewPrefixExtractor(key []byte) []byte {
	if len(key) < ViewRelIdSize {
		return key
	}
	return key[:ViewRelIdSize]
}
