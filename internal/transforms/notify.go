package transforms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	notificationEventConstant     = "build_notification"
	messageFieldConstant          = "message"
	messageOptionConstant         = "message"
	titledMessageTemplateConstant = "%s: %s"
)

type notifyOptions struct {
	Title   string `mapstructure:"title"`
	Message string `mapstructure:"message"`
}

func buildNotify(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	var options notifyOptions
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Message) == 0 {
		return nil, missingOptionError{Option: messageOptionConstant}
	}
	text := options.Message
	if len(options.Title) > 0 {
		text = fmt.Sprintf(titledMessageTemplateConstant, options.Title, options.Message)
	}
	logger := catalog.logger(ActionTypeNotify)

	return func(context.Context) error {
		logger.Info(notificationEventConstant, zap.String(messageFieldConstant, text))
		return writeOutput(catalog.dependencies.Output, text)
	}, nil
}
