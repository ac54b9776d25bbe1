// Package project reads the plugin metadata that build adapters expand into their options.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/mod/semver"
)

const (
	packageFileTypeConstant           = "json"
	packageReadErrorTemplateConstant  = "read package metadata %s: %w"
	packageNameMissingMessageConstant = "package metadata must declare a name"
	packageInvalidVersionTemplate     = "package version %q is not a valid semantic version"
	semanticVersionPrefixConstant     = "v"
	variableReferenceTemplateConstant = "${%s}"
	variableNameKeyConstant           = "name"
	variableSlugKeyConstant           = "slug"
	variableVersionKeyConstant        = "version"
	variableAuthorKeyConstant         = "author"
	variableAuthorURIKeyConstant      = "author_uri"
	variableAuthorShopKeyConstant     = "author_shop"
	variableTextDomainKeyConstant     = "text_domain"
	packageTextDomainKeyConstant      = "textdomain"
	packageDescriptionKeyConstant     = "description"
	packageLicenseKeyConstant         = "license"
	packageAuthorNameKeyConstant      = "author.name"
	packageAuthorURLKeyConstant       = "author.url"
)

// ErrPackageNameMissing indicates package.json lacks a name.
var ErrPackageNameMissing = errors.New(packageNameMissingMessageConstant)

// InvalidVersionError reports a version that is not semver.
type InvalidVersionError struct {
	Version string
}

// Error implements the error interface.
func (invalidVersion InvalidVersionError) Error() string {
	return fmt.Sprintf(packageInvalidVersionTemplate, invalidVersion.Version)
}

// Metadata describes the plugin being built.
type Metadata struct {
	Name        string
	Slug        string
	Version     string
	Description string
	License     string
	Author      string
	AuthorURI   string
	AuthorShop  string
	TextDomain  string
}

// LoadMetadata reads and validates package.json style metadata.
func LoadMetadata(packageFilePath string) (Metadata, error) {
	contents, readError := os.ReadFile(packageFilePath)
	if readError != nil {
		return Metadata{}, fmt.Errorf(packageReadErrorTemplateConstant, packageFilePath, readError)
	}
	return ParseMetadata(contents)
}

// ParseMetadata decodes package.json content.
func ParseMetadata(contents []byte) (Metadata, error) {
	reader := viper.New()
	reader.SetConfigType(packageFileTypeConstant)
	if readError := reader.ReadConfig(bytes.NewReader(contents)); readError != nil {
		return Metadata{}, fmt.Errorf(packageReadErrorTemplateConstant, packageFileTypeConstant, readError)
	}

	metadata := Metadata{
		Name:        reader.GetString(variableNameKeyConstant),
		Slug:        reader.GetString(variableSlugKeyConstant),
		Version:     reader.GetString(variableVersionKeyConstant),
		Description: reader.GetString(packageDescriptionKeyConstant),
		License:     reader.GetString(packageLicenseKeyConstant),
		Author:      reader.GetString(variableAuthorKeyConstant),
		AuthorURI:   reader.GetString(variableAuthorURIKeyConstant),
		AuthorShop:  reader.GetString(variableAuthorShopKeyConstant),
		TextDomain:  reader.GetString(packageTextDomainKeyConstant),
	}
	// npm also allows "author": {"name": ..., "url": ...}.
	if len(metadata.Author) == 0 {
		metadata.Author = reader.GetString(packageAuthorNameKeyConstant)
	}
	if len(metadata.AuthorURI) == 0 {
		metadata.AuthorURI = reader.GetString(packageAuthorURLKeyConstant)
	}

	metadata = metadata.normalized()
	if validationError := metadata.Validate(); validationError != nil {
		return Metadata{}, validationError
	}
	return metadata, nil
}

func (metadata Metadata) normalized() Metadata {
	metadata.Name = strings.TrimSpace(metadata.Name)
	metadata.Slug = strings.TrimSpace(metadata.Slug)
	metadata.Version = strings.TrimSpace(metadata.Version)
	if len(metadata.Slug) == 0 {
		metadata.Slug = metadata.Name
	}
	if len(metadata.TextDomain) == 0 {
		metadata.TextDomain = metadata.Slug
	}
	return metadata
}

// Validate enforces a name and, when present, a semantic version.
func (metadata Metadata) Validate() error {
	if len(metadata.Name) == 0 {
		return ErrPackageNameMissing
	}
	if len(metadata.Version) == 0 {
		return nil
	}
	if !semver.IsValid(canonicalVersion(metadata.Version)) {
		return InvalidVersionError{Version: metadata.Version}
	}
	return nil
}

// ReleaseLine returns the major.minor line of the version, e.g. "v2.1".
func (metadata Metadata) ReleaseLine() string {
	return semver.MajorMinor(canonicalVersion(metadata.Version))
}

func canonicalVersion(version string) string {
	if strings.HasPrefix(version, semanticVersionPrefixConstant) {
		return version
	}
	return semanticVersionPrefixConstant + version
}

// Variables exposes metadata as expansion keys.
func (metadata Metadata) Variables() map[string]string {
	return map[string]string{
		variableNameKeyConstant:       metadata.Name,
		variableSlugKeyConstant:       metadata.Slug,
		variableVersionKeyConstant:    metadata.Version,
		variableAuthorKeyConstant:     metadata.Author,
		variableAuthorURIKeyConstant:  metadata.AuthorURI,
		variableAuthorShopKeyConstant: metadata.AuthorShop,
		variableTextDomainKeyConstant: metadata.TextDomain,
		packageTextDomainKeyConstant:  metadata.TextDomain,
		packageDescriptionKeyConstant: metadata.Description,
		packageLicenseKeyConstant:     metadata.License,
	}
}

// Expander replaces ${key} references with metadata values. Unknown references are left untouched.
type Expander struct {
	replacer *strings.Replacer
}

// NewExpander builds an expander over variables.
func NewExpander(variables map[string]string) Expander {
	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf(variableReferenceTemplateConstant, key), variables[key])
	}
	return Expander{replacer: strings.NewReplacer(pairs...)}
}

// Expand substitutes references in value.
func (expander Expander) Expand(value string) string {
	if expander.replacer == nil {
		return value
	}
	return expander.replacer.Replace(value)
}

// ExpandAll walks maps and slices decoded from YAML and expands every string.
func (expander Expander) ExpandAll(value any) any {
	switch typed := value.(type) {
	case string:
		return expander.Expand(typed)
	case []any:
		expanded := make([]any, len(typed))
		for index := range typed {
			expanded[index] = expander.ExpandAll(typed[index])
		}
		return expanded
	case []string:
		expanded := make([]string, len(typed))
		for index := range typed {
			expanded[index] = expander.Expand(typed[index])
		}
		return expanded
	case map[string]any:
		expanded := make(map[string]any, len(typed))
		for key, nested := range typed {
			expanded[key] = expander.ExpandAll(nested)
		}
		return expanded
	default:
		return value
	}
}
