// Package validation checks submission payloads and strips markup from
// free-text fields.
//
// Both halves are pure: no storage, no logging. The rules live as struct tags
// on model.SubmissionInput and are applied by go-playground/validator; the
// stripping uses a bluemonday strict policy, which removes every tag and the
// content of script-like elements.
//
// Sanitizing here is defense in depth. Anything that renders these values
// must still encode them for its output format.
package validation

import (
	"errors"
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/sakif/wellness-directory/internal/model"
)

// Field-level messages, keyed by the json name of the failing field.
var fieldMessages = map[string]string{
	"title":             "Title must be between 3 and 255 characters",
	"url":               "Must be a valid URL",
	"category":          "Invalid category",
	"description":       "Description must be between 10 and 2000 characters",
	"creatorName":       "Creator name must be between 2 and 255 characters",
	"creatorLink":       "Creator link must be a valid URL",
	"creatorBackground": "Creator background must be 2000 characters or less",
	"thumbnailUrl":      "Thumbnail must be an image URL from a supported host",
}

// Image hosts accepted for thumbnails. Subdomains match too.
var imageHosts = []string{
	"i.imgur.com",
	"imgur.com",
	"i.redd.it",
	"github.com",
	"raw.githubusercontent.com",
	"media.giphy.com",
	"i.giphy.com",
}

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// maxSanitizePasses bounds the strip/unescape loop. Entity-encoded markup
// ("&lt;b&gt;") is unwrapped one level per pass.
const maxSanitizePasses = 4

// Result is the outcome of validating one payload.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validator wraps a configured go-playground validator and a bluemonday
// policy. Both are safe for concurrent use, so one Validator serves the
// whole process.
type Validator struct {
	validate *validator.Validate
	policy   *bluemonday.Policy
}

// New creates a Validator with the custom "category" and "image_url" rules
// registered.
func New() *Validator {
	v := validator.New()

	// Report json names ("creatorName") rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// RegisterValidation only fails for an empty tag or a reserved name;
	// both tags here are fixed, so errors would be programmer mistakes.
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.Category(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("image_url", func(fl validator.FieldLevel) bool {
		return IsImageURL(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return &Validator{
		validate: v,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Validate applies every rule and reports one message per failing field,
// in field order.
func (v *Validator) Validate(in model.SubmissionInput) Result {
	err := v.validate.Struct(in)
	if err == nil {
		return Result{Valid: true, Errors: []string{}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: only possible for a non-struct argument.
		return Result{Valid: false, Errors: []string{err.Error()}}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		msgs = append(msgs, msg)
	}
	return Result{Valid: false, Errors: msgs}
}

// Sanitize strips markup from the free-text fields and trims every field.
// URL fields are trimmed only; markup stripping would corrupt query strings.
func (v *Validator) Sanitize(in model.SubmissionInput) model.SubmissionInput {
	return model.SubmissionInput{
		Title:             v.SanitizeText(in.Title),
		URL:               strings.TrimSpace(in.URL),
		Category:          strings.TrimSpace(in.Category),
		Description:       v.SanitizeText(in.Description),
		CreatorName:       v.SanitizeText(in.CreatorName),
		CreatorLink:       strings.TrimSpace(in.CreatorLink),
		CreatorBackground: v.SanitizeText(in.CreatorBackground),
		ThumbnailURL:      strings.TrimSpace(in.ThumbnailURL),
	}
}

// SanitizeText removes script blocks and tag-like markup and trims the
// result.
//
// Each pass strips one level of markup and decodes one level of entities.
// Text in which no level held markup is returned as typed, so a literal
// "Tom &amp; Jerry" survives. Once markup has been stripped the result is
// the decoded plain text. Input still changing after maxSanitizePasses is
// returned in the policy's escaped form, which holds no live tags.
func (v *Validator) SanitizeText(s string) string {
	cur := s
	stripped := false
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(v.policy.Sanitize(cur))
		if next != html.UnescapeString(cur) {
			stripped = true
		}
		if next == cur {
			if !stripped {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(cur)
		}
		cur = next
	}
	return strings.TrimSpace(v.policy.Sanitize(cur))
}

// IsValidURL reports whether s is a well-formed absolute URL, using the
// same rule as the "url" tag.
func (v *Validator) IsValidURL(s string) bool {
	return v.validate.Var(s, "url") == nil
}

// IsImageURL reports whether s is an absolute http(s) URL that either points
// at an allowed image host or ends in a common image extension.
func IsImageURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range imageHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return imageExt.MatchString(s)
}
