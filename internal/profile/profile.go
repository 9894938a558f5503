// Package profile holds the applicant record used to fill forms.
package profile

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	DefaultCountry = "India"

	KeyFirstName    = "first_name"
	KeyLastName     = "last_name"
	KeyEmail        = "email"
	KeyPhone        = "phone"
	KeyAddressLine1 = "address_line1"
	KeyAddressLine2 = "address_line2"
	KeyCity         = "city"
	KeyState        = "state"
	KeyZipCode      = "zip_code"
	KeyCountry      = "country"
	KeyLinkedInURL  = "linkedin_url"
	KeyHowHeard     = "how_heard"
)

// Keys of the optional work experience and education entries. They are read
// from the extra profile values.
const (
	KeyJobTitle       = "job_title"
	KeyCompany        = "company"
	KeyJobLocation    = "job_location"
	KeyJobDescription = "job_description"
	KeyExperienceFrom = "experience_from"
	KeyExperienceTo   = "experience_to"

	KeyUniversityName = "university_name"
	KeyHighestDegree  = "highest_degree"
	KeyMajor          = "major"
	KeyEducationFrom  = "education_from"
	KeyEducationTo    = "education_to"
)

// Record is the decoded shape of the profile section of the config.
type Record struct {
	FirstName    string            `mapstructure:"first_name"`
	LastName     string            `mapstructure:"last_name"`
	Email        string            `mapstructure:"email"`
	Phone        string            `mapstructure:"phone"`
	AddressLine1 string            `mapstructure:"address_line1"`
	AddressLine2 string            `mapstructure:"address_line2"`
	City         string            `mapstructure:"city"`
	State        string            `mapstructure:"state"`
	ZipCode      string            `mapstructure:"zip_code"`
	Country      string            `mapstructure:"country"`
	LinkedInURL  string            `mapstructure:"linkedin_url"`
	HowHeard     string            `mapstructure:"how_heard"`
	ResumePath   string            `mapstructure:"resume_path"`
	Extra        map[string]string `mapstructure:",remain"`
}

// Profile is an immutable applicant record.
type Profile struct {
	values map[string]string
	resume string
}

// Decode builds a Profile from the raw config map.
func Decode(raw map[string]any) (*Profile, error) {
	if len(raw) == 0 {
		return nil, errors.New("profile is empty")
	}

	var record Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &record,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return FromRecord(record), nil
}

// FromRecord builds a Profile from an already decoded record.
func FromRecord(r Record) *Profile {
	values := make(map[string]string, len(r.Extra)+12)
	for key, value := range r.Extra {
		values[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	known := map[string]string{
		KeyFirstName:    r.FirstName,
		KeyLastName:     r.LastName,
		KeyEmail:        r.Email,
		KeyPhone:        r.Phone,
		KeyAddressLine1: r.AddressLine1,
		KeyAddressLine2: r.AddressLine2,
		KeyCity:         r.City,
		KeyState:        r.State,
		KeyZipCode:      r.ZipCode,
		KeyCountry:      r.Country,
		KeyLinkedInURL:  r.LinkedInURL,
		KeyHowHeard:     r.HowHeard,
	}
	for key, value := range known {
		if value = strings.TrimSpace(value); value != "" {
			values[key] = value
		}
	}

	return &Profile{
		values: values,
		resume: strings.TrimSpace(r.ResumePath),
	}
}

// Value returns the value stored under key or an empty string.
func (p *Profile) Value(key string) string {
	if p == nil {
		return ""
	}
	return p.values[key]
}

// Resume returns the resume file path.
func (p *Profile) Resume() string {
	if p == nil {
		return ""
	}
	return p.resume
}

// Country returns the country to select on forms.
func (p *Profile) Country() string {
	if country := p.Value(KeyCountry); country != "" {
		return country
	}
	return DefaultCountry
}

// Answers returns a copy of all stored values keyed by profile key.
func (p *Profile) Answers() map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return maps.Clone(p.values)
}
