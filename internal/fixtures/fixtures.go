// Package fixtures holds the case data the suites submit before driving the UI.
package fixtures

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

//go:embed data/*.json
var data embed.FS

//go:embed data/files/*
var files embed.FS

const (
	MandatorySubmissionFields                 = "mandatorySubmissionFields"
	MandatoryWithMaxChildren                  = "mandatoryWithMaxChildren"
	MandatoryWithAdditionalApplicationsBundle = "mandatoryWithAdditionalApplicationsBundle"
	PrepareForHearing                         = "prepareForHearing"
)

// Fixture is one case payload: a target state and the case data to create it with.
type Fixture struct {
	Name string
	raw  []byte
}

// Load reads an embedded fixture by name.
func Load(name string) (*Fixture, error) {
	raw, err := data.ReadFile("data/" + name + ".json")
	if err != nil {
		return nil, failure.Validation(fmt.Sprintf("unknown fixture %q", name))
	}
	if !gjson.ValidBytes(raw) {
		return nil, failure.Validation(fmt.Sprintf("fixture %q is not valid JSON", name))
	}
	return &Fixture{Name: name, raw: raw}, nil
}

// MustLoad is Load for fixtures known at compile time.
func MustLoad(name string) *Fixture {
	f, err := Load(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Raw returns the whole payload as sent to the case service.
func (f *Fixture) Raw() []byte { return f.raw }

// Get looks up a gjson path, e.g. "caseData.children1.0.value.party.firstName".
func (f *Fixture) Get(path string) gjson.Result {
	return gjson.GetBytes(f.raw, path)
}

// State is the case state the fixture is created in.
func (f *Fixture) State() string {
	return f.Get("state").String()
}

// Party is a person named in the case data.
type Party struct {
	FirstName   string
	LastName    string
	Gender      string
	DateOfBirth string
}

// FullName joins first and last name.
func (p Party) FullName() string {
	return p.FirstName + " " + p.LastName
}

// DisplayDateOfBirth renders the date the way the case view does, e.g. "1 Aug 2015".
func (p Party) DisplayDateOfBirth() string {
	t, err := time.Parse(time.DateOnly, p.DateOfBirth)
	if err != nil {
		return p.DateOfBirth
	}
	return t.Format("2 Jan 2006")
}

// Children lists the parties of caseData.children1 in order.
func (f *Fixture) Children() []Party {
	return f.parties("caseData.children1")
}

// Respondents lists the parties of caseData.respondents1 in order.
func (f *Fixture) Respondents() []Party {
	return f.parties("caseData.respondents1")
}

func (f *Fixture) parties(path string) []Party {
	var out []Party
	f.Get(path).ForEach(func(_, el gjson.Result) bool {
		party := el.Get("value.party")
		out = append(out, Party{
			FirstName:   party.Get("firstName").String(),
			LastName:    party.Get("lastName").String(),
			Gender:      party.Get("gender").String(),
			DateOfBirth: party.Get("dateOfBirth").String(),
		})
		return true
	})
	return out
}

// Documents the suites upload.
const (
	TestFile     = "mockFile.txt"
	TestPDFFile  = "mockFile.pdf"
	TestWordFile = "mockFile.docx"
)

// WriteTestFile copies an embedded upload document into dir and returns its
// path. The browser can only upload files that exist on disk.
func WriteTestFile(dir, name string) (string, error) {
	raw, err := files.ReadFile("data/files/" + name)
	if err != nil {
		return "", failure.Validation(fmt.Sprintf("unknown test file %q", name))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("test files: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("test files: write %s: %w", path, err)
	}
	return path, nil
}
