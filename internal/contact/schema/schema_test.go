package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SchemaSuite struct {
	suite.Suite
	schema *Schema
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaSuite))
}

func (s *SchemaSuite) SetupTest() {
	s.schema = Default()
}

func validFields() map[string]string {
	return map[string]string{
		"name":    "Ada Lovelace",
		"email":   "ada@example.org",
		"subject": "Engine inquiry",
		"message": "I would like to discuss the analytical engine project.",
	}
}

func (s *SchemaSuite) TestAcceptsValidSubmission() {
	result := s.schema.Validate(validFields())

	s.True(result.Valid)
	s.Empty(result.Errors)
	s.Equal("Ada Lovelace", result.Sanitized["name"])
	s.Equal("ada@example.org", result.Sanitized["email"])
}

func (s *SchemaSuite) TestRequiredFields() {
	// Justification: every missing required field must be reported in a
	// single pass, not one at a time.
	result := s.schema.Validate(map[string]string{})

	s.False(result.Valid)
	s.Len(result.Errors, 4)
	s.Equal("Name is required", result.Errors["name"])
	s.Equal("Email is required", result.Errors["email"])
	s.Equal("Subject is required", result.Errors["subject"])
	s.Equal("Message is required", result.Errors["message"])
	s.Nil(result.Sanitized)
}

func (s *SchemaSuite) TestWhitespaceOnlyCountsAsMissing() {
	fields := validFields()
	fields["name"] = "   "

	result := s.schema.Validate(fields)

	s.False(result.Valid)
	s.Equal("Name is required", result.Errors["name"])
}

func (s *SchemaSuite) TestLengthBoundaries() {
	cases := []struct {
		desc    string
		field   string
		value   string
		wantErr string
	}{
		{"name one char rejected", "name", "A", "Name must be at least 2 characters"},
		{"name two chars accepted", "name", "Al", ""},
		{"name at max accepted", "name", strings.Repeat("a", 100), ""},
		{"name over max rejected", "name", strings.Repeat("a", 101), "Name must be at most 100 characters"},
		{"subject two chars rejected", "subject", "Hi", "Subject must be at least 3 characters"},
		{"message nine chars rejected", "message", "too short", "Message must be at least 10 characters"},
		{"message at min accepted", "message", "just right", ""},
		{"message over max rejected", "message", strings.Repeat("m", 5001), "Message must be at most 5000 characters"},
	}

	for _, tc := range cases {
		s.Run(tc.desc, func() {
			fields := validFields()
			fields[tc.field] = tc.value

			result := s.schema.Validate(fields)

			if tc.wantErr == "" {
				s.True(result.Valid)
			} else {
				s.False(result.Valid)
				s.Equal(tc.wantErr, result.Errors[tc.field])
			}
		})
	}
}

func (s *SchemaSuite) TestEmailFormat() {
	cases := []struct {
		desc  string
		email string
		valid bool
	}{
		{"plain address", "user@example.com", true},
		{"subdomain", "user@mail.example.co.uk", true},
		{"plus tag", "user+tag@example.com", true},
		{"missing at", "userexample.com", false},
		{"missing domain", "user@", false},
		{"spaces inside", "user name@example.com", false},
	}

	for _, tc := range cases {
		s.Run(tc.desc, func() {
			fields := validFields()
			fields["email"] = tc.email

			result := s.schema.Validate(fields)

			if tc.valid {
				s.True(result.Valid)
			} else {
				s.False(result.Valid)
				s.Equal("Please provide a valid email address", result.Errors["email"])
			}
		})
	}
}

func (s *SchemaSuite) TestNamePattern() {
	fields := validFields()
	fields["name"] = "Robert; DROP TABLE"

	result := s.schema.Validate(fields)

	s.False(result.Valid)
	s.Equal("Name contains invalid characters", result.Errors["name"])
}

func (s *SchemaSuite) TestNameAllowsDiacriticsAndHyphens() {
	fields := validFields()
	fields["name"] = "Zoë O'Brien-Müller"

	result := s.schema.Validate(fields)

	s.True(result.Valid)
}

func (s *SchemaSuite) TestMessageBlacklist() {
	// Justification: the message blacklist rejects active-content markers
	// outright rather than relying on the sanitizer to defuse them.
	cases := []string{
		"Please visit javascript:alert(1) for details today",
		"Great deals on viagra and more, reply now",
		"Check my <SCRIPT>alert(1)</SCRIPT> demo please",
	}

	for _, msg := range cases {
		s.Run(msg[:20], func() {
			fields := validFields()
			fields["message"] = msg

			result := s.schema.Validate(fields)

			s.False(result.Valid)
			s.Equal("Message contains prohibited content", result.Errors["message"])
		})
	}
}

func (s *SchemaSuite) TestOptionalFieldsPassThrough() {
	fields := validFields()
	fields["budget"] = "$5k - $10k"
	fields["timeline"] = "Q3 2026"

	result := s.schema.Validate(fields)

	s.True(result.Valid)
	s.Equal("$5k - $10k", result.Sanitized["budget"])
	s.Equal("Q3 2026", result.Sanitized["timeline"])
}

func (s *SchemaSuite) TestOptionalFieldOverMaxRejected() {
	fields := validFields()
	fields["budget"] = strings.Repeat("b", 101)

	result := s.schema.Validate(fields)

	s.False(result.Valid)
	s.Equal("Budget must be at most 100 characters", result.Errors["budget"])
}

func (s *SchemaSuite) TestCollectsErrorsAcrossFields() {
	result := s.schema.Validate(map[string]string{
		"name":    "A",
		"email":   "not-an-email",
		"subject": "Hello there",
		"message": "short",
	})

	s.False(result.Valid)
	s.Len(result.Errors, 3)
	s.Contains(result.Errors, "name")
	s.Contains(result.Errors, "email")
	s.Contains(result.Errors, "message")
}

type SanitizeSuite struct {
	suite.Suite
}

func TestSanitizeSuite(t *testing.T) {
	suite.Run(t, new(SanitizeSuite))
}

func (s *SanitizeSuite) TestStripsScriptBlocks() {
	s.Equal("hello world", Sanitize("hello <script>alert('x')</script>world"))
	s.Equal("hello world", Sanitize("hello <SCRIPT type=\"text/javascript\">evil()</SCRIPT> world"))
}

func (s *SanitizeSuite) TestStripsStrayScriptTags() {
	out := Sanitize("before <script> after")
	s.NotContains(strings.ToLower(out), "script")
}

func (s *SanitizeSuite) TestEncodesHTMLSpecials() {
	s.Equal("Tom &amp; Jerry", Sanitize("Tom & Jerry"))
	s.Equal("&lt;b&gt;bold&lt;/b&gt;", Sanitize("<b>bold</b>"))
	s.Equal("say &quot;hi&quot; &amp; &#39;bye&#39;", Sanitize(`say "hi" & 'bye'`))
}

func (s *SanitizeSuite) TestNoDoubleEncoding() {
	s.Equal("&amp;amp;", Sanitize("&amp;"))
}

func (s *SanitizeSuite) TestNeutralizesJavascriptURLs() {
	out := Sanitize("click javascript:alert(1) now")
	s.NotContains(strings.ToLower(out), "javascript:")
}

func (s *SanitizeSuite) TestStripsEventHandlers() {
	out := Sanitize(`img onerror=alert(1) src=x`)
	s.NotContains(strings.ToLower(out), "onerror=")
}

func (s *SanitizeSuite) TestStripsControlCharacters() {
	s.Equal("ab", Sanitize("a\x00\x07b"))
}

func (s *SanitizeSuite) TestCollapsesWhitespace() {
	s.Equal("a b c", Sanitize("a\t\t b\n\n  c  "))
}
