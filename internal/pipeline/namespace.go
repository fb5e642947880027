package pipeline

import (
	"path"
	"strings"
)

// Separator joins namespace segments derived from packages and tests.
const Separator = `\`

// Namespace derives the document namespace of a package. The module's root
// package is named after the last element of the module path and every
// package below it nests under that name, so example.com/shop/cart becomes
// `shop\cart`. Packages outside the module keep their full import path.
func Namespace(module, pkg string) string {
	rel := pkg
	switch {
	case pkg == module:
		rel = path.Base(module)
	case strings.HasPrefix(pkg, module+"/"):
		rel = path.Base(module) + "/" + strings.TrimPrefix(pkg, module+"/")
	}
	return strings.ReplaceAll(rel, "/", Separator)
}

// CaseNamespace derives the namespace of a test case. Subtests share the
// namespace of their top-level test, and the leading "Test" is dropped:
// TestCheckout/empty_cart in example.com/shop/cart becomes `shop\cart\Checkout`.
func CaseNamespace(module, pkg, test string) string {
	top, _ := splitTest(test)
	name := strings.TrimPrefix(top, "Test")
	if name == "" {
		name = top
	}
	return Namespace(module, pkg) + Separator + name
}

// splitTest separates a test name into its top-level part and reports
// whether it names a subtest.
func splitTest(test string) (top string, sub bool) {
	top, _, sub = strings.Cut(test, "/")
	return top, sub
}
