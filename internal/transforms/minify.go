package transforms

import (
	"bytes"
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/tyemirov/wpforge/internal/cache"
	"github.com/tyemirov/wpforge/internal/pipeline"
)

const (
	mediaTypeStylesheetConstant = "text/css"
	mediaTypeScriptConstant     = "application/javascript"
	minifyTransformNameConstant = "minify"
	lineEndingTransformName     = "line-endings"
	defaultLineEndingConstant   = "\n"
)

func newMinifier() *minify.M {
	minifier := minify.New()
	minifier.AddFunc(mediaTypeStylesheetConstant, css.Minify)
	minifier.AddFunc(mediaTypeScriptConstant, js.Minify)
	return minifier
}

// minifyTransform minifies every record as mediaType, consulting store before doing the work.
func minifyTransform(executionContext context.Context, minifier *minify.M, store *cache.Store, mediaType string) pipeline.Transform {
	return pipeline.MapContents(minifyTransformNameConstant, func(record pipeline.FileRecord) ([]byte, error) {
		key := cache.Key([]byte(mediaType), record.Contents)
		if cached, found, cacheError := store.Get(executionContext, mediaType, key); cacheError == nil && found {
			return cached, nil
		}
		minified, minifyError := minifier.Bytes(mediaType, record.Contents)
		if minifyError != nil {
			return nil, minifyError
		}
		if putError := store.Put(executionContext, mediaType, key, minified); putError != nil {
			return nil, putError
		}
		return minified, nil
	})
}

// lineEndingTransform rewrites CRLF and lone CR line breaks to lineEnding.
func lineEndingTransform(lineEnding string) pipeline.Transform {
	if len(lineEnding) == 0 {
		lineEnding = defaultLineEndingConstant
	}
	replacement := []byte(lineEnding)
	return pipeline.MapContents(lineEndingTransformName, func(record pipeline.FileRecord) ([]byte, error) {
		normalized := bytes.ReplaceAll(record.Contents, []byte("\r\n"), []byte("\n"))
		normalized = bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))
		if lineEnding == defaultLineEndingConstant {
			return normalized, nil
		}
		return bytes.ReplaceAll(normalized, []byte("\n"), replacement), nil
	})
}
