package story

import "go.uber.org/zap"

// lookup is one heuristic in a fallback chain.
type lookup[T any] func() (T, bool)

// firstMatch runs lookups in order and returns the first hit.
func firstMatch[T any](lookups ...lookup[T]) (T, bool) {
	for _, l := range lookups {
		if v, ok := l(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// finder queries the document on behalf of the heuristics. Query errors are
// logged and read as "no match".
type finder struct {
	log *zap.Logger
}

func (f finder) find(scope Element, selector string) lookup[Element] {
	return func() (Element, bool) {
		if scope == nil || selector == "" {
			return nil, false
		}
		el, err := scope.Find(selector)
		if err != nil {
			f.log.Debug("query failed", zap.String("selector", selector), zap.Error(err))
			return nil, false
		}
		return el, el != nil
	}
}

// findEach turns a selector list into lookups scoped to one element.
func (f finder) findEach(scope Element, selectors []string) []lookup[Element] {
	out := make([]lookup[Element], 0, len(selectors))
	for _, s := range selectors {
		out = append(out, f.find(scope, s))
	}
	return out
}

func (f finder) text(el Element) string {
	if el == nil {
		return ""
	}
	t, err := el.Text()
	if err != nil {
		f.log.Debug("read text failed", zap.Error(err))
		return ""
	}
	return t
}

func (f finder) source(el Element) string {
	if el == nil {
		return ""
	}
	src, err := el.Source()
	if err != nil {
		f.log.Debug("read source failed", zap.Error(err))
		return ""
	}
	return src
}

func (f finder) hasClass(el Element, class string) bool {
	if class == "" {
		return false
	}
	ok, err := el.HasClass(class)
	if err != nil {
		f.log.Debug("class check failed", zap.String("class", class), zap.Error(err))
		return false
	}
	return ok
}
