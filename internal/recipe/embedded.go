package recipe

import _ "embed"

//go:embed recipe.yaml
var embeddedRecipe []byte

// EmbeddedRecipe returns the built-in plugin build recipe.
func EmbeddedRecipe() []byte {
	return append([]byte(nil), embeddedRecipe...)
}

// EmbeddedConfiguration parses the built-in recipe.
func EmbeddedConfiguration() (Configuration, error) {
	return ParseConfiguration(embeddedRecipe)
}
