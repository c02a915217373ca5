// Package filetags attaches assignment metadata to files in a Dropbox folder
// through a user-level file property template.
package filetags

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/file_properties"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"
)

// ErrNotFound is returned when no file in the folder matches the name.
var ErrNotFound = errors.New("file not found in folder")

// searchAPI is the subset of files.Client used for lookups.
type searchAPI interface {
	SearchV2(arg *files.SearchV2Arg) (*files.SearchV2Result, error)
}

// propertiesAPI is the subset of file_properties.Client used for tagging.
type propertiesAPI interface {
	TemplatesAddForUser(arg *file_properties.AddTemplateArg) (*file_properties.AddTemplateResult, error)
	TemplatesListForUser() (*file_properties.ListTemplateResult, error)
	TemplatesGetForUser(arg *file_properties.GetTemplateArg) (*file_properties.GetTemplateResult, error)
	PropertiesAdd(arg *file_properties.AddPropertiesArg) error
	PropertiesUpdate(arg *file_properties.UpdatePropertiesArg) error
}

type accountAPI interface {
	GetCurrentAccount() (*users.FullAccount, error)
}

type Options struct {
	Folder              string
	TemplateName        string
	TemplateDescription string
}

type Client struct {
	search     searchAPI
	properties propertiesAPI
	account    accountAPI
	opts       Options
	templateID string
	logger     *slog.Logger
}

// New builds a client from a Dropbox access token.
func New(token string, opts Options, logger *slog.Logger) *Client {
	config := dropbox.Config{Token: token, LogLevel: dropbox.LogOff}
	return newClient(files.New(config), file_properties.New(config), users.New(config), opts, logger)
}

func newClient(search searchAPI, properties propertiesAPI, account accountAPI, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.HasPrefix(opts.Folder, "/") {
		opts.Folder = "/" + opts.Folder
	}
	return &Client{
		search:     search,
		properties: properties,
		account:    account,
		opts:       opts,
		logger:     logger,
	}
}

func (c *Client) Folder() string {
	return c.opts.Folder
}

// CurrentAccount returns the display name of the linked account. It doubles
// as a check that the token is valid.
func (c *Client) CurrentAccount() (string, error) {
	acct, err := c.account.GetCurrentAccount()
	if err != nil {
		return "", fmt.Errorf("get current account: %w", err)
	}
	if acct.Name != nil && acct.Name.DisplayName != "" {
		return acct.Name.DisplayName, nil
	}
	return acct.Email, nil
}

// FindFilePath returns the lower-cased path of the first file in the folder
// whose name matches.
func (c *Client) FindFilePath(name string) (string, error) {
	arg := files.NewSearchV2Arg(name)
	arg.Options = files.NewSearchOptions()
	arg.Options.Path = c.opts.Folder
	arg.Options.FilenameOnly = true

	res, err := c.search.SearchV2(arg)
	if err != nil {
		c.logger.Error("search failed", "file", name, "folder", c.opts.Folder, "error", err)
		return "", fmt.Errorf("search %q: %w", name, err)
	}

	for _, match := range res.Matches {
		if p := matchPath(match); p != "" {
			return p, nil
		}
	}
	c.logger.Info("file not found", "file", name, "folder", c.opts.Folder)
	return "", fmt.Errorf("%w: %q in %s", ErrNotFound, name, c.opts.Folder)
}

func matchPath(match *files.SearchMatchV2) string {
	if match == nil || match.Metadata == nil {
		return ""
	}
	switch m := match.Metadata.Metadata.(type) {
	case *files.FileMetadata:
		return m.PathLower
	case *files.FolderMetadata:
		return m.PathLower
	}
	return ""
}

// EnsureTemplate returns the id of the property template, creating it on
// first use. An existing template with the same name is reused.
func (c *Client) EnsureTemplate() (string, error) {
	if c.templateID != "" {
		return c.templateID, nil
	}

	id, err := c.lookupTemplate()
	if err != nil {
		return "", err
	}
	if id != "" {
		c.templateID = id
		return id, nil
	}

	arg := file_properties.NewAddTemplateArg(c.opts.TemplateName, c.opts.TemplateDescription, templateFields())
	res, addErr := c.properties.TemplatesAddForUser(arg)
	if addErr == nil {
		c.logger.Info("property template created", "template", c.opts.TemplateName, "id", res.TemplateId)
		c.templateID = res.TemplateId
		return c.templateID, nil
	}

	// another client may have created it concurrently
	id, err = c.lookupTemplate()
	if err == nil && id != "" {
		c.logger.Info("property template already exists", "template", c.opts.TemplateName)
		c.templateID = id
		return id, nil
	}
	c.logger.Error("create property template failed", "template", c.opts.TemplateName, "error", addErr)
	return "", fmt.Errorf("create template %q: %w", c.opts.TemplateName, addErr)
}

func (c *Client) lookupTemplate() (string, error) {
	list, err := c.properties.TemplatesListForUser()
	if err != nil {
		return "", fmt.Errorf("list templates: %w", err)
	}
	for _, id := range list.TemplateIds {
		tmpl, err := c.properties.TemplatesGetForUser(file_properties.NewGetTemplateArg(id))
		if err != nil {
			return "", fmt.Errorf("get template %s: %w", id, err)
		}
		if tmpl.Name == c.opts.TemplateName {
			return id, nil
		}
	}
	return "", nil
}

func templateFields() []*file_properties.PropertyFieldTemplate {
	fields := make([]*file_properties.PropertyFieldTemplate, 0, len(models.TagFields))
	for _, name := range models.TagFields {
		typ := &file_properties.PropertyType{Tagged: dropbox.Tagged{Tag: file_properties.PropertyTypeString}}
		fields = append(fields, file_properties.NewPropertyFieldTemplate(name, name, typ))
	}
	return fields
}

// AddMetadata attaches a new property group holding all five fields.
func (c *Client) AddMetadata(name string, a models.Assignment) error {
	templateID, err := c.EnsureTemplate()
	if err != nil {
		return err
	}

	path, err := c.FindFilePath(name)
	if err != nil {
		return err
	}

	tags := a.Tags()
	fields := make([]*file_properties.PropertyField, len(tags))
	for i, tag := range tags {
		fields[i] = file_properties.NewPropertyField(tag.Key, tag.Value)
	}
	group := file_properties.NewPropertyGroup(templateID, fields)

	if err := c.properties.PropertiesAdd(file_properties.NewAddPropertiesArg(path, []*file_properties.PropertyGroup{group})); err != nil {
		c.logger.Error("add metadata failed", "path", path, "error", err)
		return fmt.Errorf("add metadata to %s: %w", path, err)
	}
	c.logger.Info("metadata added", "path", path)
	return nil
}

// UpdateMetadata adds or replaces a single field, leaving the others alone.
func (c *Client) UpdateMetadata(name, key, value string) error {
	templateID, err := c.EnsureTemplate()
	if err != nil {
		return err
	}

	path, err := c.FindFilePath(name)
	if err != nil {
		return err
	}

	update := file_properties.NewPropertyGroupUpdate(templateID)
	update.AddOrUpdateFields = []*file_properties.PropertyField{
		file_properties.NewPropertyField(key, value),
	}

	arg := file_properties.NewUpdatePropertiesArg(path, []*file_properties.PropertyGroupUpdate{update})
	if err := c.properties.PropertiesUpdate(arg); err != nil {
		c.logger.Error("update metadata failed", "path", path, "key", key, "error", err)
		return fmt.Errorf("update %s on %s: %w", key, path, err)
	}
	c.logger.Info("metadata updated", "path", path, "key", key)
	return nil
}
