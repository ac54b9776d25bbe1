package transforms

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/pipeline"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	translationTemplateWrittenEvent = "translation_template_written"
	translationSourcesEmptyEvent    = "translation_sources_empty"
	sourcesOptionConstant           = "sources"
	potDirectoryErrorTemplate       = "prepare translation template directory %s: %w"
	potHeadersErrorTemplate         = "encode translation template headers: %w"
	makePotSubcommandConstant       = "i18n"
	makePotCommandConstant          = "make-pot"
	makePotSourceDirectoryConstant  = "."
	makePotSlugFlagTemplate         = "--slug=%s"
	makePotDomainFlagTemplate       = "--domain=%s"
	makePotPackageFlagTemplate      = "--package-name=%s"
	makePotHeadersFlagTemplate      = "--headers=%s"
	makePotIncludeFlagTemplate      = "--include=%s"
	makePotSkipAuditFlagConstant    = "--skip-audit"
	makePotIncludeSeparatorConstant = ","
	bugReportHeaderConstant         = "Report-Msgid-Bugs-To"
	lastTranslatorHeaderConstant    = "Last-Translator"
	languageTeamHeaderConstant      = "Language-Team"
)

type translateOptions struct {
	Sources        []string `mapstructure:"sources"`
	Destination    string   `mapstructure:"destination"`
	Domain         string   `mapstructure:"domain"`
	Package        string   `mapstructure:"package"`
	BugReport      string   `mapstructure:"bug_report"`
	LastTranslator string   `mapstructure:"last_translator"`
	Team           string   `mapstructure:"team"`
	Command        string   `mapstructure:"command"`
}

// buildTranslate extracts gettext strings with `wp i18n make-pot`, restricted to the files the
// source patterns select. Extraction rules and the template format belong to WP-CLI.
func buildTranslate(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	metadata := catalog.dependencies.Metadata
	options := translateOptions{
		Domain:  metadata.TextDomain,
		Package: metadata.Name,
		Command: string(execshell.CommandWPCLI),
	}
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Destination) == 0 {
		return nil, missingOptionError{Option: destinationFieldConstant}
	}
	if len(options.Sources) == 0 {
		return nil, missingOptionError{Option: sourcesOptionConstant}
	}
	headers, headersError := makePotHeaders(options)
	if headersError != nil {
		return nil, headersError
	}
	logger := catalog.logger(ActionTypeTranslate)

	return func(executionContext context.Context) error {
		if catalog.dependencies.CommandExecutor == nil {
			return ErrCommandExecutorMissing
		}
		sources, matchError := pipeline.Match(catalog.dependencies.Root, options.Sources, pipeline.MatchOptions{})
		if matchError != nil {
			return matchError
		}
		if len(sources) == 0 {
			logger.Warn(translationSourcesEmptyEvent, zap.String(pathFieldConstant, options.Destination))
			return nil
		}

		targetDirectory := filepath.Dir(filepath.Join(catalog.dependencies.Root, filepath.FromSlash(options.Destination)))
		if mkdirError := os.MkdirAll(targetDirectory, 0o755); mkdirError != nil {
			return fmt.Errorf(potDirectoryErrorTemplate, options.Destination, mkdirError)
		}

		arguments := []string{
			makePotSubcommandConstant,
			makePotCommandConstant,
			makePotSourceDirectoryConstant,
			filepath.ToSlash(options.Destination),
			fmt.Sprintf(makePotSlugFlagTemplate, metadata.Slug),
			fmt.Sprintf(makePotDomainFlagTemplate, options.Domain),
			fmt.Sprintf(makePotPackageFlagTemplate, options.Package),
			fmt.Sprintf(makePotIncludeFlagTemplate, strings.Join(sources, makePotIncludeSeparatorConstant)),
			makePotSkipAuditFlagConstant,
		}
		if len(headers) > 0 {
			arguments = append(arguments, fmt.Sprintf(makePotHeadersFlagTemplate, headers))
		}

		if _, executionError := catalog.dependencies.CommandExecutor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(options.Command),
			Details: execshell.CommandDetails{
				Arguments:        arguments,
				WorkingDirectory: catalog.dependencies.Root,
			},
		}); executionError != nil {
			return executionError
		}

		logger.Info(translationTemplateWrittenEvent, zap.String(pathFieldConstant, options.Destination), zap.Int(fileCountFieldConstant, len(sources)))
		return nil
	}, nil
}

// makePotHeaders renders the non-empty template headers as the JSON object make-pot expects.
func makePotHeaders(options translateOptions) (string, error) {
	headers := map[string]string{}
	for name, value := range map[string]string{
		bugReportHeaderConstant:      options.BugReport,
		lastTranslatorHeaderConstant: options.LastTranslator,
		languageTeamHeaderConstant:   options.Team,
	} {
		if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
			headers[name] = trimmed
		}
	}
	if len(headers) == 0 {
		return "", nil
	}
	encoded, encodeError := json.Marshal(headers)
	if encodeError != nil {
		return "", fmt.Errorf(potHeadersErrorTemplate, encodeError)
	}
	return string(encoded), nil
}
