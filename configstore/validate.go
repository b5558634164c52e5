package configstore

import "github.com/pithecene-io/tornado/matcher"

// Validate runs the matcher's fail-fast compile-time validation (id
// regex, extractor regex, operator operands, accessor paths — §4.4
// "Compile") against cfg without keeping the built Matcher, used by
// every write path before persisting (§4.5: "validates (see 3.6, 4.2,
// 4.3) then writes atomically").
func Validate(cfg *matcher.Config) error {
	_, err := matcher.Build(cfg)
	return err
}

// WrapBareRuleset ensures cfg is rooted at a Filter, wrapping a bare
// Ruleset in a default Filter named "root" (§4.5 create_draft: "if
// current is a bare Ruleset, wraps it in a default Filter named root so
// every draft is rooted at a Filter").
func WrapBareRuleset(cfg *matcher.Config) *matcher.Config {
	if cfg == nil || cfg.IsFilter {
		return cfg
	}
	return &matcher.Config{
		IsFilter: true,
		Name:     "root",
		Active:   true,
		Nodes:    []*matcher.Config{cfg},
	}
}
