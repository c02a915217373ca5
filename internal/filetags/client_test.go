package filetags

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/file_properties"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"
)

type fakeSearch struct {
	paths []string
	err   error
	calls []*files.SearchV2Arg
}

func (f *fakeSearch) SearchV2(arg *files.SearchV2Arg) (*files.SearchV2Result, error) {
	f.calls = append(f.calls, arg)
	if f.err != nil {
		return nil, f.err
	}
	res := &files.SearchV2Result{}
	for _, p := range f.paths {
		meta := &files.FileMetadata{}
		meta.PathLower = p
		res.Matches = append(res.Matches, &files.SearchMatchV2{
			Metadata: &files.MetadataV2{Metadata: meta},
		})
	}
	return res, nil
}

type fakeProperties struct {
	templates map[string]string // id -> name
	addErr    error
	nextID    string
	created   int
	added     []*file_properties.AddPropertiesArg
	updated   []*file_properties.UpdatePropertiesArg
}

func newFakeProperties() *fakeProperties {
	return &fakeProperties{templates: map[string]string{}, nextID: "ptid:1"}
}

func (f *fakeProperties) TemplatesAddForUser(arg *file_properties.AddTemplateArg) (*file_properties.AddTemplateResult, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	for _, name := range f.templates {
		if name == arg.Name {
			return nil, errors.New("template already exists")
		}
	}
	f.created++
	f.templates[f.nextID] = arg.Name
	return &file_properties.AddTemplateResult{TemplateId: f.nextID}, nil
}

func (f *fakeProperties) TemplatesListForUser() (*file_properties.ListTemplateResult, error) {
	res := &file_properties.ListTemplateResult{}
	for id := range f.templates {
		res.TemplateIds = append(res.TemplateIds, id)
	}
	return res, nil
}

func (f *fakeProperties) TemplatesGetForUser(arg *file_properties.GetTemplateArg) (*file_properties.GetTemplateResult, error) {
	res := &file_properties.GetTemplateResult{}
	res.Name = f.templates[arg.TemplateId]
	return res, nil
}

func (f *fakeProperties) PropertiesAdd(arg *file_properties.AddPropertiesArg) error {
	f.added = append(f.added, arg)
	return nil
}

func (f *fakeProperties) PropertiesUpdate(arg *file_properties.UpdatePropertiesArg) error {
	f.updated = append(f.updated, arg)
	return nil
}

type fakeAccount struct{}

func (fakeAccount) GetCurrentAccount() (*users.FullAccount, error) {
	acct := &users.FullAccount{}
	acct.Name = &users.Name{DisplayName: "Northside Debate"}
	acct.Email = "coach@example.com"
	return acct, nil
}

func testOptions() Options {
	return Options{
		Folder:              "Northside Debate 2025-2026",
		TemplateName:        "Debate Metadata",
		TemplateDescription: "Tagging debate assignments",
	}
}

func newTestClient(search *fakeSearch, props *fakeProperties) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newClient(search, props, fakeAccount{}, testOptions(), logger)
}

func TestNewClient_PrefixesFolder(t *testing.T) {
	c := newTestClient(&fakeSearch{}, newFakeProperties())
	if got := c.Folder(); got != "/Northside Debate 2025-2026" {
		t.Errorf("Folder() = %q", got)
	}
}

func TestFindFilePath_FirstMatch(t *testing.T) {
	search := &fakeSearch{paths: []string{"/northside debate 2025-2026/essay.docx", "/northside debate 2025-2026/old/essay.docx"}}
	c := newTestClient(search, newFakeProperties())

	got, err := c.FindFilePath("Essay.docx")
	if err != nil {
		t.Fatalf("FindFilePath() error = %v", err)
	}
	if got != "/northside debate 2025-2026/essay.docx" {
		t.Errorf("FindFilePath() = %q", got)
	}
	if len(search.calls) != 1 || search.calls[0].Options.Path != c.Folder() {
		t.Errorf("search not scoped to folder: %+v", search.calls)
	}
}

func TestFindFilePath_NoMatchIsNotFound(t *testing.T) {
	c := newTestClient(&fakeSearch{}, newFakeProperties())

	_, err := c.FindFilePath("missing.docx")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindFilePath() error = %v, want ErrNotFound", err)
	}
}

func TestFindFilePath_SearchError(t *testing.T) {
	boom := errors.New("network down")
	c := newTestClient(&fakeSearch{err: boom}, newFakeProperties())

	_, err := c.FindFilePath("essay.docx")
	if !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Errorf("FindFilePath() error = %v, want wrapped search error", err)
	}
}

func TestEnsureTemplate_Idempotent(t *testing.T) {
	props := newFakeProperties()
	c := newTestClient(&fakeSearch{}, props)

	first, err := c.EnsureTemplate()
	if err != nil {
		t.Fatalf("EnsureTemplate() error = %v", err)
	}
	second, err := c.EnsureTemplate()
	if err != nil {
		t.Fatalf("second EnsureTemplate() error = %v", err)
	}
	if first != second {
		t.Errorf("template ids differ: %q vs %q", first, second)
	}
	if props.created != 1 {
		t.Errorf("created = %d, want 1", props.created)
	}
}

func TestEnsureTemplate_ReusesExisting(t *testing.T) {
	props := newFakeProperties()
	props.templates["ptid:other"] = "Scouting"
	props.templates["ptid:existing"] = "Debate Metadata"

	// a fresh client has no cached template id
	c := newTestClient(&fakeSearch{}, props)
	id, err := c.EnsureTemplate()
	if err != nil {
		t.Fatalf("EnsureTemplate() error = %v", err)
	}
	if id != "ptid:existing" {
		t.Errorf("EnsureTemplate() = %q, want ptid:existing", id)
	}
	if props.created != 0 {
		t.Errorf("created = %d, want 0", props.created)
	}
}

func TestEnsureTemplate_CreateFails(t *testing.T) {
	props := newFakeProperties()
	props.addErr = errors.New("too many templates")
	c := newTestClient(&fakeSearch{}, props)

	if _, err := c.EnsureTemplate(); !errors.Is(err, props.addErr) {
		t.Errorf("EnsureTemplate() error = %v, want %v", err, props.addErr)
	}
}

func TestAddMetadata(t *testing.T) {
	props := newFakeProperties()
	c := newTestClient(&fakeSearch{paths: []string{"/f/essay 1.docx"}}, props)

	a := models.Assignment{Name: "Essay 1", Description: "Write about X", DueDate: "2025-12-01", Progress: models.ProgressNotStarted, Assignee: "Ada"}
	if err := c.AddMetadata("Essay 1.docx", a); err != nil {
		t.Fatalf("AddMetadata() error = %v", err)
	}
	if len(props.added) != 1 {
		t.Fatalf("added = %d, want 1", len(props.added))
	}
	arg := props.added[0]
	if arg.Path != "/f/essay 1.docx" {
		t.Errorf("Path = %q", arg.Path)
	}
	group := arg.PropertyGroups[0]
	if group.TemplateId != "ptid:1" {
		t.Errorf("TemplateId = %q", group.TemplateId)
	}
	got := map[string]string{}
	for _, f := range group.Fields {
		got[f.Name] = f.Value
	}
	want := map[string]string{
		"assignment_name": "Essay 1",
		"description":     "Write about X",
		"due_date":        "2025-12-01",
		"status":          "Not Started",
		"assignee":        "Ada",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestAddMetadata_FileMissing(t *testing.T) {
	props := newFakeProperties()
	c := newTestClient(&fakeSearch{}, props)

	err := c.AddMetadata("ghost.docx", models.Assignment{Name: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("AddMetadata() error = %v, want ErrNotFound", err)
	}
	if len(props.added) != 0 {
		t.Error("properties added for a missing file")
	}
}

func TestUpdateMetadata_SingleField(t *testing.T) {
	props := newFakeProperties()
	c := newTestClient(&fakeSearch{paths: []string{"/f/essay 1.docx"}}, props)

	if err := c.UpdateMetadata("Essay 1.docx", "status", "Done"); err != nil {
		t.Fatalf("UpdateMetadata() error = %v", err)
	}
	if len(props.updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(props.updated))
	}
	upd := props.updated[0].UpdatePropertyGroups[0]
	if len(upd.AddOrUpdateFields) != 1 || upd.AddOrUpdateFields[0].Name != "status" || upd.AddOrUpdateFields[0].Value != "Done" {
		t.Errorf("AddOrUpdateFields = %+v", upd.AddOrUpdateFields)
	}
	if len(upd.RemoveFields) != 0 {
		t.Errorf("RemoveFields = %v, want none", upd.RemoveFields)
	}
}

func TestCurrentAccount(t *testing.T) {
	c := newTestClient(&fakeSearch{}, newFakeProperties())

	name, err := c.CurrentAccount()
	if err != nil {
		t.Fatalf("CurrentAccount() error = %v", err)
	}
	if name != "Northside Debate" {
		t.Errorf("CurrentAccount() = %q", name)
	}
}
