// Package extract implements the layered product-extraction cascade:
// structured markup, embedded script state and rendered-DOM selectors are
// consulted in priority order and merged field by field into one record.
package extract

// Fields is the partial result one reader contributes. nil means the
// reader found no usable value for the field.
type Fields struct {
	Title       *string
	Description *string
	Price       *float64
	Currency    *string
	SKU         *string
	Images      []string
}

// Merge fills only the fields the receiver is still missing. Populated
// fields are never overwritten: earlier sources are trusted more. Images
// from the later source are appended with first-seen order preserved.
func (f *Fields) Merge(src Fields) {
	if f.Title == nil {
		f.Title = src.Title
	}
	if f.Description == nil {
		f.Description = src.Description
	}
	if f.Price == nil {
		f.Price = src.Price
	}
	if f.Currency == nil {
		f.Currency = src.Currency
	}
	if f.SKU == nil {
		f.SKU = src.SKU
	}
	if len(src.Images) > 0 {
		f.Images = dedupe(append(f.Images, src.Images...))
	}
}

// MissingCritical reports whether either gate field for the next cascade
// stage is still absent.
func (f *Fields) MissingCritical() bool {
	return f.Title == nil || f.Price == nil
}

// ContributedCritical reports whether this field set carries at least one
// of the fields that determine provenance.
func (f *Fields) ContributedCritical() bool {
	return f.Title != nil || f.Price != nil
}

// IsEmpty reports whether the reader found nothing at all.
func (f *Fields) IsEmpty() bool {
	return f.Title == nil && f.Description == nil && f.Price == nil &&
		f.Currency == nil && f.SKU == nil && len(f.Images) == 0
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(v float64) *float64 {
	return &v
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
